package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/student-ally/ally-core/internal/infrastructure/database"
)

// IdentityRepository defines persistence for one identity partition.
type IdentityRepository interface {
	Create(ctx context.Context, id *Identity) error
	GetByID(ctx context.Context, id int64) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	List(ctx context.Context) ([]Identity, error)
	ListByRoles(ctx context.Context, roles []Role) ([]Identity, error)
	Delete(ctx context.Context, id int64) (*Identity, error)
	Count(ctx context.Context) (int, error)
}

// identityColumns is the select list shared by every read. role is
// coalesced so a NULL administrator role scans as "".
const identityColumns = "id, name, email, password_hash, COALESCE(role, '') AS role, created_at, updated_at"

// SQLIdentityRepository implements IdentityRepository over sqlx for a
// single partition table.
type SQLIdentityRepository struct {
	db        *sqlx.DB
	partition Partition
}

// NewUserRepository returns the repository for standard users.
func NewUserRepository(db *sqlx.DB) *SQLIdentityRepository {
	return &SQLIdentityRepository{db: db, partition: PartitionUsers}
}

// NewAdminRepository returns the repository for administrators.
func NewAdminRepository(db *sqlx.DB) *SQLIdentityRepository {
	return &SQLIdentityRepository{db: db, partition: PartitionAdministrators}
}

// Partition reports which table the repository reads and writes.
func (r *SQLIdentityRepository) Partition() Partition {
	return r.partition
}

// Create inserts an identity and fills in its generated id and timestamps
// in a single statement.
// A duplicate email within the partition returns ErrEmailExists.
func (r *SQLIdentityRepository) Create(ctx context.Context, id *Identity) error {
	if id.Role == "" && r.partition == PartitionUsers {
		id.Role = DefaultUserRole
	}

	var role any = string(id.Role)
	if id.Role == "" {
		role = nil
	}

	// Timestamps are set here so the insert is the only statement.
	now := time.Now().UTC().Truncate(time.Microsecond)

	query := r.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (name, email, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id",
		r.partition))

	var newID int64
	err := r.db.QueryRowxContext(ctx, query, id.Name, id.Email, id.PasswordHash, role, now, now).Scan(&newID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating %s identity: %w", r.partition, err)
	}

	id.ID = newID
	id.CreatedAt = now
	id.UpdatedAt = now
	return nil
}

// GetByID retrieves an identity by its id.
func (r *SQLIdentityRepository) GetByID(ctx context.Context, id int64) (*Identity, error) {
	return r.get(ctx, "id = ?", id)
}

// GetByEmail retrieves an identity by its exact email.
func (r *SQLIdentityRepository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.get(ctx, "email = ?", email)
}

// List returns every identity in the partition, oldest first.
func (r *SQLIdentityRepository) List(ctx context.Context) ([]Identity, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id ASC", identityColumns, r.partition)

	ids := []Identity{}
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.partition, err)
	}
	return ids, nil
}

// ListByRoles returns identities whose role is one of roles.
// An empty roles slice yields an empty result.
func (r *SQLIdentityRepository) ListByRoles(ctx context.Context, roles []Role) ([]Identity, error) {
	ids := []Identity{}
	if len(roles) == 0 {
		return ids, nil
	}

	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	query, args, err := sqlx.In(fmt.Sprintf(
		"SELECT %s FROM %s WHERE role IN (?) ORDER BY id ASC", identityColumns, r.partition), names)
	if err != nil {
		return nil, fmt.Errorf("building role filter: %w", err)
	}

	if err := r.db.SelectContext(ctx, &ids, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing %s by role: %w", r.partition, err)
	}
	return ids, nil
}

// Delete removes an identity and returns the deleted row's public fields.
func (r *SQLIdentityRepository) Delete(ctx context.Context, id int64) (*Identity, error) {
	query := r.db.Rebind(fmt.Sprintf(
		"DELETE FROM %s WHERE id = ? RETURNING id, name, email", r.partition))

	var deleted Identity
	if err := r.db.QueryRowxContext(ctx, query, id).Scan(&deleted.ID, &deleted.Name, &deleted.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("deleting %s identity: %w", r.partition, err)
	}
	return &deleted, nil
}

// Count returns the number of identities in the partition.
func (r *SQLIdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", r.partition)); err != nil {
		return 0, fmt.Errorf("counting %s: %w", r.partition, err)
	}
	return count, nil
}

func (r *SQLIdentityRepository) get(ctx context.Context, where string, arg any) (*Identity, error) {
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s", identityColumns, r.partition, where))

	var id Identity
	if err := r.db.GetContext(ctx, &id, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("getting %s identity: %w", r.partition, err)
	}
	return &id, nil
}
