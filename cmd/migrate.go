package main

import (
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/database"
)

func newMigrateCmd() *cobra.Command {
	var down int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if down > 0 {
				return database.Rollback(cfg.Database, down)
			}
			return database.Migrate(cfg.Database)
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of migrating up")
	return cmd
}
