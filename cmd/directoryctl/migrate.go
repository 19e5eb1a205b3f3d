package main

import (
	"actrec-directory/internal/infrastructure/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	var (
		mode string
		down int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the directory schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if down > 0 {
				return database.RollbackSQLMigrations(a.config, down)
			}
			if mode != "" {
				a.config.DBMigrationMode = mode
			}
			s, err := a.store()
			if err != nil {
				return err
			}
			if err := database.Migrate(s.DB, a.config, a.logger); err != nil {
				return err
			}
			cmd.Println("schema is up to date")
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "auto, sql or drop (default: DB_MIGRATION_MODE)")
	cmd.Flags().IntVar(&down, "down", 0, "roll back this many SQL migration steps")
	return cmd
}
