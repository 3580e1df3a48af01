package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aevon-lab/asc-analytics/internal/core/storage/postgres"
	"github.com/aevon-lab/asc-analytics/internal/migrations"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the record store schema",
	Long: `Apply every pending migration to database.dsn.

Examples:
  ascmetrics migrate          # Run all pending migrations
  ascmetrics migrate --down   # Roll back all migrations`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back all migrations")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, false)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateDown {
		return migrations.Rollback(db)
	}
	return migrations.RunMigrations(db, true)
}
