package auth

import (
	"context"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/student-ally/ally-core/internal/infrastructure/database"
	_ "github.com/student-ally/ally-core/migrations"
)

// testDB opens a temporary SQLite database with the embedded migrations applied.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Driver:      database.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

// testHasher is a bcrypt hasher at minimum cost to keep tests fast.
func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

// seedIdentity inserts an identity with the given password into repo.
func seedIdentity(t *testing.T, repo IdentityRepository, name, email, password string, role Role) *Identity {
	t.Helper()

	hash, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	id := &Identity{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := repo.Create(context.Background(), id); err != nil {
		t.Fatalf("seeding %s: %v", email, err)
	}
	return id
}
