package main

import (
	"log/slog"
	"time"

	"school/config"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewSessionsCmd creates the refresh session maintenance commands.
func NewSessionsCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain refresh sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired refresh sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.withStore(func(_ *config.Config, logger *slog.Logger, s *store) error {
				purged, err := s.sessions.DeleteExpired(cmd.Context(), time.Now())
				if err != nil {
					return errors.Wrap(err, "failed to purge sessions")
				}

				logger.Info("Expired sessions purged", slog.Int64("count", purged))
				cmd.Printf("Purged %d expired session(s)\n", purged)

				return nil
			})
		},
	})

	return cmd
}
