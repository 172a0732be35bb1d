package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationFS embed.FS

// Migrate applies every embedded migration of the connection's dialect that
// goose_db_version does not list yet. Safe to call on every start.
func Migrate(ctx context.Context, db *sqlx.DB) (int, error) {
	dialect, dir := goose.DialectPostgres, "migrations/postgres"
	if db.DriverName() == DriverSQLite {
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	}

	fsys, err := fs.Sub(migrationFS, dir)
	if err != nil {
		return 0, fmt.Errorf("read migrations: %w", err)
	}
	return migrate(ctx, db, dialect, fsys)
}

func migrate(ctx context.Context, db *sqlx.DB, dialect goose.Dialect, fsys fs.FS) (int, error) {
	provider, err := goose.NewProvider(dialect, db.DB, fsys, goose.WithDisableGlobalRegistry(true))
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		var partial *goose.PartialError
		if errors.As(err, &partial) {
			return len(partial.Applied), fmt.Errorf("migration %d: %w", partial.Failed.Source.Version, partial.Err)
		}
		return 0, err
	}
	return len(results), nil
}
