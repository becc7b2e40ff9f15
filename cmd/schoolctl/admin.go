package main

import (
	"log/slog"

	"school/config"
	"school/internal/domain/entity"
	"school/internal/usecase"

	"github.com/spf13/cobra"
)

type createAdminOptions struct {
	username string
	password string
	name     string
	role     string
}

// NewCreateAdminCmd creates the command that seeds a password identity.
func NewCreateAdminCmd(d *deps) *cobra.Command {
	opts := &createAdminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a password identity",
		Long: `Create an identity that logs in through /admin/login. The password is
stored as a bcrypt hash. The role defaults to admin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.withStore(func(_ *config.Config, logger *slog.Logger, s *store) error {
				identity, err := s.users.CreatePasswordIdentity(cmd.Context(), usecase.CreatePasswordIdentityInput{
					Username: opts.username,
					Password: opts.password,
					Name:     opts.name,
					Role:     entity.RoleName(opts.role),
				})
				if err != nil {
					return err
				}

				logger.Info("Password identity created",
					slog.Uint64("identity_id", identity.ID),
					slog.String("username", identity.Username),
				)
				cmd.Printf("Created %s (id %d, role %s)\n", identity.Username, identity.ID, entity.ResolveRoleName(identity))

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "login name")
	cmd.Flags().StringVar(&opts.password, "password", "", "initial password")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.role, "role", entity.RoleAdmin.String(), "role name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
