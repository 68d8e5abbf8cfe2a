package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationsFS should be set by the migrations package to embed migration files.
// This allows the migrations to be compiled into the binary.
//
//	//go:embed sqlite/*.sql postgres/*.sql
//	var migrationsFS embed.FS
//
//	func init() {
//	    database.MigrationsFS = migrationsFS
//	}
var MigrationsFS fs.FS

// Dialect directories inside MigrationsFS.
const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

// ErrNoMigrations is returned when MigrationsFS has not been registered.
var ErrNoMigrations = errors.New("no migrations registered")

// Migrate applies all pending migrations for the connection's dialect.
//
// Each migration runs in its own transaction. A failed migration leaves the
// earlier ones committed and the schema_migrations table marked dirty at
// the failing version.
func (db *DB) Migrate(ctx context.Context) error {
	if MigrationsFS == nil {
		return ErrNoMigrations
	}

	m, err := db.newMigrator()
	if err != nil {
		return err
	}

	// Let a cancelled context stop the run between migrations.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return ctx.Err()
}

// MigrationVersion reports the currently applied schema version.
func (db *DB) MigrationVersion() (version uint, dirty bool, err error) {
	if MigrationsFS == nil {
		return 0, false, ErrNoMigrations
	}

	m, err := db.newMigrator()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading migration version: %w", err)
	}
	return version, dirty, nil
}

// newMigrator builds a golang-migrate instance over the shared connection.
// The instance is never closed: closing it would close the pool.
func (db *DB) newMigrator() (*migrate.Migrate, error) {
	dir := dialectSQLite
	if db.driver != DriverSQLite {
		dir = dialectPostgres
	}

	src, err := iofs.New(MigrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	var drv database.Driver
	switch db.driver {
	case DriverSQLite:
		drv, err = migratesqlite.WithInstance(db.DB.DB, &migratesqlite.Config{})
	default:
		drv, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("preparing migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.driver, drv)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}
