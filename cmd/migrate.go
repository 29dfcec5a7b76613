package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"field-service-server/config"
	"field-service-server/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.Open(cfg.Database, logger.Warn)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Println("✅ Database migrations completed successfully")
			return nil
		},
	}
}
