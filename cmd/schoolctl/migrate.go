package main

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.withMigrator(func(m migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				cmd.Printf("Rolled back %d migration(s)\n", steps)

				return printVersion(cmd, m)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return d.withMigrator(func(m migrator) error {
					if err := m.Up(); err != nil {
						return err
					}

					return printVersion(cmd, m)
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return d.withMigrator(func(m migrator) error {
					return printVersion(cmd, m)
				})
			},
		},
	)

	return cmd
}

func printVersion(cmd *cobra.Command, m migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	if dirty {
		cmd.Printf("Schema version %d (dirty)\n", version)
	} else {
		cmd.Printf("Schema version %d\n", version)
	}

	return nil
}

func (d *deps) withMigrator(fn func(m migrator) error) error {
	cfg, err := d.loadConfig()
	if err != nil {
		return err
	}
	logger := d.newLogger(cfg)

	m, err := d.newMigrator(cfg, logger)
	if err != nil {
		return errors.Wrap(err, "failed to open migrator")
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("Failed to close migrator", slog.Any("error", err))
		}
	}()

	return fn(m)
}
