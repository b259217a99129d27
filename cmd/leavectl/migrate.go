package main

import (
	"fmt"

	"go-leave/internal/app"
	"go-leave/internal/config"
	"go-leave/internal/shared/connection"
	"go-leave/internal/shared/migration"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "run db migration files under db/migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigration,
}

func runMigration(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) == 1 {
		command = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, logger)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.Database.Driver == "sqlite" {
		if command != "up" {
			return fmt.Errorf("sqlite only supports migrate up")
		}
		if err := app.AutoMigrate(gormDB); err != nil {
			return err
		}
		logger.Info("sqlite schema migrated", zap.String("path", cfg.Database.Path))
		return nil
	}

	if err := migration.Run(cmd.Context(), sqlDB, command); err != nil {
		return err
	}
	logger.Info("migration finished", zap.String("command", command))
	return nil
}
