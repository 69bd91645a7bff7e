package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Oscarts/backery2-app-sub005/internal/infrastructure/config"
	"github.com/Oscarts/backery2-app-sub005/internal/infrastructure/database"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create or update every table used by the production core.

SQLite databases are migrated automatically on first use; PostgreSQL
databases must be migrated explicitly.

Example:
  BAKERY_DATABASE_TYPE=postgres DATABASE_URL=postgres://... bakery migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close(db)

			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			fmt.Printf("✓ %s schema is up to date\n", cfg.Database.Type)
			return nil
		},
	}
}
