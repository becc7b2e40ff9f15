package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for schoolctl.
func NewRootCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schoolctl",
		Short: "Operate the school identity service",
		Long: `schoolctl manages the identity database: schema migrations,
password identities for administrators, and refresh session maintenance.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewMigrateCmd(d))
	cmd.AddCommand(NewCreateAdminCmd(d))
	cmd.AddCommand(NewSessionsCmd(d))

	return cmd
}
