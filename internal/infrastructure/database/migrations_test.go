package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/student-ally/ally-core/internal/infrastructure/database"
	_ "github.com/student-ally/ally-core/migrations"
)

// TestEmbeddedMigrations applies the shipped SQLite schema and checks the
// tables every repository depends on.
func TestEmbeddedMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Driver:      database.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "schema.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	tables := []string{
		"users", "administrators", "audit_logs",
		"alumni", "jobs", "events", "donations", "mentorships", "success_stories",
	}
	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			var name string
			err := db.GetContext(ctx, &name,
				"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
			if err != nil {
				t.Errorf("table %s not found: %v", table, err)
			}
		})
	}
}

func TestEmbeddedMigrations_EmailUniquePerPartition(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "unique.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	insertUser := "INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)"
	insertAdmin := "INSERT INTO administrators (name, email, password_hash, role) VALUES (?, ?, ?, ?)"

	if _, err := db.ExecContext(ctx, insertUser, "A", "a@x.com", "h"); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := db.ExecContext(ctx, insertUser, "B", "a@x.com", "h"); !database.IsUniqueViolation(err) {
		t.Errorf("duplicate user email error = %v, want unique violation", err)
	}

	// Partitions are independent.
	if _, err := db.ExecContext(ctx, insertAdmin, "A", "a@x.com", "h", "admin"); err != nil {
		t.Errorf("admin with user's email: %v", err)
	}
}
