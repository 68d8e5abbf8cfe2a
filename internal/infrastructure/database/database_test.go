package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), Config{
		Driver:      DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	return db
}

// TestOpen verifies database connection establishment.
func TestOpen(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		db := openTestDB(t)

		if _, err := db.ExecContext(context.Background(), "CREATE TABLE t (id INTEGER)"); err != nil {
			t.Fatalf("ExecContext() error = %v", err)
		}
		if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("creates directory if not exists", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

		db, err := Open(context.Background(), Config{Path: dbPath, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // test cleanup

		if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
			t.Error("database directory was not created")
		}
		if db.Driver() != DriverSQLite {
			t.Errorf("Driver() = %q, want %q", db.Driver(), DriverSQLite)
		}
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := Open(context.Background(), Config{Driver: "oracle"})
		if !errors.Is(err, ErrUnknownDriver) {
			t.Errorf("Open() error = %v, want ErrUnknownDriver", err)
		}
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		_, err := Open(context.Background(), Config{Driver: DriverPostgres})
		if err == nil {
			t.Error("Open() expected error for empty DSN, got nil")
		}
	})
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClose(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := db.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() after Close() expected error, got nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE people (email TEXT NOT NULL UNIQUE)"); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO people (email) VALUES (?)", "a@x.com"); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	_, err := db.ExecContext(ctx, "INSERT INTO people (email) VALUES (?)", "a@x.com")
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}

	_, err = db.ExecContext(ctx, "INSERT INTO people (email) VALUES (NULL)")
	if err == nil {
		t.Fatal("expected NOT NULL violation")
	}
	if IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(NOT NULL error) = true, want false")
	}

	if IsUniqueViolation(nil) {
		t.Error("IsUniqueViolation(nil) = true, want false")
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Error("IsUniqueViolation(plain error) = true, want false")
	}
}

func TestMigrate(t *testing.T) {
	orig := MigrationsFS
	t.Cleanup(func() { MigrationsFS = orig })

	t.Run("no migrations registered", func(t *testing.T) {
		MigrationsFS = nil
		db := openTestDB(t)

		if err := db.Migrate(context.Background()); !errors.Is(err, ErrNoMigrations) {
			t.Errorf("Migrate() error = %v, want ErrNoMigrations", err)
		}
	})

	t.Run("applies and is idempotent", func(t *testing.T) {
		MigrationsFS = fstest.MapFS{
			"sqlite/1_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT);")},
			"sqlite/1_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
			"sqlite/2_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY);")},
			"sqlite/2_gadgets.down.sql": {Data: []byte("DROP TABLE gadgets;")},
		}
		db := openTestDB(t)
		ctx := context.Background()

		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("second Migrate() error = %v", err)
		}

		version, dirty, err := db.MigrationVersion()
		if err != nil {
			t.Fatalf("MigrationVersion() error = %v", err)
		}
		if version != 2 || dirty {
			t.Errorf("MigrationVersion() = (%d, %v), want (2, false)", version, dirty)
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO widgets (name) VALUES (?)", "w"); err != nil {
			t.Errorf("widgets table missing after migrate: %v", err)
		}
	})

	t.Run("broken migration reports error", func(t *testing.T) {
		MigrationsFS = fstest.MapFS{
			"sqlite/1_broken.up.sql":   {Data: []byte("CREATE TABLE oops (")},
			"sqlite/1_broken.down.sql": {Data: []byte("")},
		}
		db := openTestDB(t)

		if err := db.Migrate(context.Background()); err == nil {
			t.Error("Migrate() expected error for invalid SQL, got nil")
		}
	})
}
