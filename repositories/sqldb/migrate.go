package sqldb

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite3/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema migrations for the pool's driver
func (db *DB) Migrate() error {
	var (
		dbInstance database.Driver
		err        error
	)
	switch db.driver {
	case DriverPostgres:
		dbInstance, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		dbInstance, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", db.driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create DB instance: %w", err)
	}

	srcInstance, err := iofs.New(migrationsFS, "migrations/"+db.driver)
	if err != nil {
		return fmt.Errorf("failed to create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcInstance, db.driver, dbInstance)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		db.logger.Info("no migrations to apply")
		return nil
	}

	db.logger.Info("database schema migrated", zap.String("driver", db.driver))
	return nil
}
