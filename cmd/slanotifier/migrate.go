package main

import (
	"github.com/lorrc/sla-notifier/internal/adapters/secondary/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Database.MigrationsDir
			}

			version, err := postgres.Migrate(a.cfg.Database.URL, dir)
			if err != nil {
				return err
			}

			a.logger.Info("migrations applied", "dir", dir, "version", version)
			success(cmd.OutOrStdout(), "schema at version %d", version)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (defaults to database.migrations_dir)")
	return cmd
}
