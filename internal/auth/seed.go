package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/student-ally/ally-core/internal/infrastructure/config"
	"github.com/student-ally/ally-core/internal/infrastructure/logging"
)

// seedPasswordBytes is the number of random bytes for a generated superadmin password.
const seedPasswordBytes = 16

// SeedSuperadmin creates the first superadmin when the administrators
// partition is empty and a bootstrap email is configured. If no password is
// configured, one is generated and logged once.
// Returns the password used (empty string if seeding was skipped).
func SeedSuperadmin(ctx context.Context, admins IdentityRepository, hasher Hasher, cfg config.SuperadminConfig, logger *logging.Logger) (string, error) {
	if cfg.Email == "" {
		logger.Debug("no bootstrap superadmin configured, skipping seed")
		return "", nil
	}

	count, err := admins.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking administrator count: %w", err)
	}
	if count > 0 {
		logger.Info("administrators exist, skipping superadmin seed")
		return "", nil
	}

	password := cfg.Password
	generated := password == ""
	if generated {
		b := make([]byte, seedPasswordBytes)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("generating seed password: %w", err)
		}
		password = hex.EncodeToString(b)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "Super Admin"
	}

	admin := &Identity{
		Name:         name,
		Email:        cfg.Email,
		PasswordHash: hash,
		Role:         RoleSuperadmin,
	}
	if err := admins.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating seed superadmin: %w", err)
	}

	if generated {
		logger.Warn("seed superadmin created with generated password",
			"email", admin.Email,
			"password", password,
			"action_required", "store this password and rotate it",
		)
	} else {
		logger.Info("seed superadmin created", "email", admin.Email, "id", admin.ID)
	}

	return password, nil
}
