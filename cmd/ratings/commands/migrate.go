package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-ratings/pkg/config"
	"github.com/wonny/aegis-ratings/pkg/database"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 마이그레이션 적용",
	Long: `내장된 SQL 마이그레이션(data, signals, selection 스키마)을
DATABASE_URL 대상에 적용합니다. 이미 적용된 버전은 건너뜁니다.

Example:
  go run ./cmd/ratings migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	log.Info("Applying migrations")
	if err := database.Migrate(cfg.Database.URL); err != nil {
		PrintError(fmt.Sprintf("Migration failed: %v", err))
		return err
	}

	PrintSuccess("Schema is up to date")
	return nil
}
