package migration

import (
	"context"
	"database/sql"
	"fmt"

	"go-leave/db/migrations"

	"github.com/pressly/goose/v3"
)

const tableName = "schema_migrations"

func prepare() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(tableName)
	return goose.SetDialect("postgres")
}

// Run applies a goose command ("up", "down", "status", ...) with the embedded migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if err := prepare(); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
