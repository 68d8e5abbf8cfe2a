package auth

import (
	"context"
	"errors"
	"fmt"
)

// Authenticate looks up email in repo and verifies password against the
// stored hash. An unknown email and a wrong password both return
// ErrInvalidCredentials. For an unknown email the password is still hashed
// once, so both failures cost one bcrypt round.
func Authenticate(ctx context.Context, repo IdentityRepository, hasher Hasher, email, password string) (*Identity, error) {
	identity, err := repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrIdentityNotFound) {
		_, _ = hasher.Hash(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	match, err := hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("identity %d: %w", identity.ID, err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return identity, nil
}
