package db

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// AutoMigrator creates tables from gorm models. It backs the sqlite driver,
// which the Postgres SQL migrations do not target.
type AutoMigrator func(db *gorm.DB) error

// Migrate brings the schema up to date: goose SQL migrations on Postgres,
// model auto-migration on sqlite.
func Migrate(ctx context.Context, database *Database, logger *slog.Logger, fallbacks ...AutoMigrator) error {
	if logger == nil {
		logger = slog.Default()
	}
	if database.Driver == DriverSQLite {
		for _, migrate := range fallbacks {
			if err := migrate(database.DB.WithContext(ctx)); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
		}
		logger.Info("sqlite schema migrated",
			"event", "db_auto_migrated",
			"module", "internal/platform/db",
			"layer", "platform",
		)
		return nil
	}

	sqlDB, err := database.DB.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	logger.Info("running postgres migrations",
		"event", "db_migrate_started",
		"module", "internal/platform/db",
		"layer", "platform",
	)
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("postgres migrations completed",
		"event", "db_migrate_completed",
		"module", "internal/platform/db",
		"layer", "platform",
	)
	return nil
}
