package store

import (
	"context"
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

func prepareGoose(driver string) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	dialect := "postgres"
	if driver == DriverSQLite {
		dialect = "sqlite3"
	}
	return goose.SetDialect(dialect)
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *DB) error {
	if err := prepareGoose(db.Driver); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	return errors.Wrap(goose.UpContext(ctx, db.SQL(), migrationsDir), "migrate up")
}

// RunMigration runs an arbitrary goose command (up, down, status, version, ...).
func RunMigration(ctx context.Context, db *DB, command string, args ...string) error {
	if err := prepareGoose(db.Driver); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	return goose.RunContext(ctx, command, db.SQL(), migrationsDir, args...)
}
