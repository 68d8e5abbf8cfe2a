package alumni

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const profileColumns = "id, name, email, graduation_year, profile_pic, bio, job_title, company, linkedin, github, created_at"

// Repository persists alumni profiles.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates an alumni profile repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns all profiles in insertion order.
func (r *Repository) List(ctx context.Context) ([]Profile, error) {
	profiles := []Profile{}
	if err := r.db.SelectContext(ctx, &profiles, "SELECT "+profileColumns+" FROM alumni ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("listing alumni: %w", err)
	}
	return profiles, nil
}

// Get returns one profile.
func (r *Repository) Get(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	err := r.db.GetContext(ctx, &p, r.db.Rebind("SELECT "+profileColumns+" FROM alumni WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting alumni %d: %w", id, err)
	}
	return &p, nil
}

// Create inserts a profile and returns the stored row.
func (r *Repository) Create(ctx context.Context, in ProfileInput) (*Profile, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO alumni (name, email, graduation_year, profile_pic, bio, job_title, company, linkedin, github)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		in.Name, in.Email, in.GraduationYear, in.ProfilePic, in.Bio,
		in.JobTitle, in.Company, in.LinkedIn, in.GitHub,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating alumni: %w", err)
	}
	return r.Get(ctx, id)
}

// Update replaces every writable field of a profile.
func (r *Repository) Update(ctx context.Context, id int64, in ProfileInput) (*Profile, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE alumni SET name = ?, email = ?, graduation_year = ?, profile_pic = ?, bio = ?,
		 job_title = ?, company = ?, linkedin = ?, github = ? WHERE id = ?`),
		in.Name, in.Email, in.GraduationYear, in.ProfilePic, in.Bio,
		in.JobTitle, in.Company, in.LinkedIn, in.GitHub, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating alumni %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // supported by every driver in use
		return nil, ErrProfileNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a profile.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM alumni WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting alumni %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // supported by every driver in use
		return ErrProfileNotFound
	}
	return nil
}
