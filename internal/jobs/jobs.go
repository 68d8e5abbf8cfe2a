// Package jobs stores job postings shared with students.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrJobNotFound is returned when a posting does not exist.
var ErrJobNotFound = errors.New("job not found")

// Job is a single posting.
type Job struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Company     string    `db:"company" json:"company"`
	Location    string    `db:"location" json:"location"`
	Type        string    `db:"type" json:"type"`
	PostedBy    string    `db:"posted_by" json:"posted_by"`
	Description string    `db:"description" json:"description"`
	JobLink     string    `db:"job_link" json:"job_link"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Input is the request body for creating a posting. Every field is required.
type Input struct {
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Type        string `json:"type" validate:"required"`
	PostedBy    string `json:"posted_by" validate:"required"`
	Description string `json:"description" validate:"required"`
	JobLink     string `json:"job_link" validate:"required"`
}

const columns = "id, title, company, location, type, posted_by, description, job_link, created_at"

// Repository persists job postings.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a job repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns all postings, newest first.
func (r *Repository) List(ctx context.Context) ([]Job, error) {
	jobs := []Job{}
	if err := r.db.SelectContext(ctx, &jobs, "SELECT "+columns+" FROM jobs ORDER BY id DESC"); err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

// Get returns one posting.
func (r *Repository) Get(ctx context.Context, id int64) (*Job, error) {
	var j Job
	err := r.db.GetContext(ctx, &j, r.db.Rebind("SELECT "+columns+" FROM jobs WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %d: %w", id, err)
	}
	return &j, nil
}

// Create inserts a posting and returns the stored row.
func (r *Repository) Create(ctx context.Context, in Input) (*Job, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO jobs (title, company, location, type, posted_by, description, job_link)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		in.Title, in.Company, in.Location, in.Type, in.PostedBy, in.Description, in.JobLink,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	return r.Get(ctx, id)
}

// Delete removes a posting.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM jobs WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting job %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // supported by every driver in use
		return ErrJobNotFound
	}
	return nil
}
