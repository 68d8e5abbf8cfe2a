package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

// countingHasher counts bcrypt rounds spent by the wrapped hasher.
type countingHasher struct {
	Hasher
	rounds atomic.Int32
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.rounds.Add(1)
	return h.Hasher.Hash(password)
}

func (h *countingHasher) Verify(password, hash string) (bool, error) {
	h.rounds.Add(1)
	return h.Hasher.Verify(password, hash)
}

func TestAuthenticate(t *testing.T) {
	repo := NewUserRepository(testDB(t).DB)
	stored := seedIdentity(t, repo, "Jane", "jane@x.com", "secret1", RoleStudent)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "jane@x.com", "secret1", nil},
		{"wrong password", "jane@x.com", "secret2", ErrInvalidCredentials},
		{"unknown email", "nobody@x.com", "secret1", ErrInvalidCredentials},
		{"email differs in case", "Jane@x.com", "secret1", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hasher := &countingHasher{Hasher: testHasher()}

			got, err := Authenticate(context.Background(), repo, hasher, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got.ID != stored.ID {
				t.Errorf("Authenticate() id = %d, want %d", got.ID, stored.ID)
			}
			if n := hasher.rounds.Load(); n != 1 {
				t.Errorf("bcrypt rounds = %d, want 1", n)
			}
		})
	}
}

func TestAuthenticate_UnusableHash(t *testing.T) {
	repo := NewUserRepository(testDB(t).DB)
	id := &Identity{Name: "Broken", Email: "broken@x.com", PasswordHash: "not-a-bcrypt-hash", Role: RoleStudent}
	if err := repo.Create(context.Background(), id); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := Authenticate(context.Background(), repo, testHasher(), "broken@x.com", "secret1")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() error = %v, want a hash error", err)
	}
}
