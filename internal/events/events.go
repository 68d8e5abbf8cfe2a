// Package events stores campus and alumni events.
//
// Dates are kept as YYYY-MM-DD text so listing by date is a plain string
// ordering on every supported database.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// DateLayout is the accepted format for date and registration_deadline.
const DateLayout = "2006-01-02"

// ErrEventNotFound is returned when an event does not exist.
var ErrEventNotFound = errors.New("event not found")

// Event is a scheduled event.
type Event struct {
	ID                   int64     `db:"id" json:"id"`
	Title                string    `db:"title" json:"title"`
	Date                 string    `db:"date" json:"date"`
	Time                 string    `db:"time" json:"time"`
	Location             string    `db:"location" json:"location"`
	Type                 string    `db:"type" json:"type"`
	Description          string    `db:"description" json:"description"`
	RegistrationDeadline string    `db:"registration_deadline" json:"registration_deadline"`
	Capacity             int       `db:"capacity" json:"capacity"`
	Image                *string   `db:"image" json:"image"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// Input is the request body for create and update. Only image is optional.
type Input struct {
	Title                string  `json:"title" validate:"required"`
	Date                 string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time                 string  `json:"time" validate:"required"`
	Location             string  `json:"location" validate:"required"`
	Type                 string  `json:"type" validate:"required"`
	Description          string  `json:"description" validate:"required"`
	RegistrationDeadline string  `json:"registration_deadline" validate:"required,datetime=2006-01-02"`
	Capacity             int     `json:"capacity" validate:"required,gt=0"`
	Image                *string `json:"image"`
}

const columns = "id, title, date, time, location, type, description, registration_deadline, capacity, image, created_at"

// Repository persists events.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates an event repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns all events by date, earliest first.
func (r *Repository) List(ctx context.Context) ([]Event, error) {
	events := []Event{}
	if err := r.db.SelectContext(ctx, &events, "SELECT "+columns+" FROM events ORDER BY date ASC, id ASC"); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// Upcoming returns events dated on or after the given day.
func (r *Repository) Upcoming(ctx context.Context, from time.Time) ([]Event, error) {
	events := []Event{}
	query := r.db.Rebind("SELECT " + columns + " FROM events WHERE date >= ? ORDER BY date ASC, id ASC")
	if err := r.db.SelectContext(ctx, &events, query, from.Format(DateLayout)); err != nil {
		return nil, fmt.Errorf("listing upcoming events: %w", err)
	}
	return events, nil
}

// Get returns one event.
func (r *Repository) Get(ctx context.Context, id int64) (*Event, error) {
	var e Event
	err := r.db.GetContext(ctx, &e, r.db.Rebind("SELECT "+columns+" FROM events WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting event %d: %w", id, err)
	}
	return &e, nil
}

// Create inserts an event and returns the stored row.
func (r *Repository) Create(ctx context.Context, in Input) (*Event, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO events (title, date, time, location, type, description, registration_deadline, capacity, image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		in.Title, in.Date, in.Time, in.Location, in.Type, in.Description,
		in.RegistrationDeadline, in.Capacity, in.Image,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return r.Get(ctx, id)
}

// Update replaces every field of an event.
func (r *Repository) Update(ctx context.Context, id int64, in Input) (*Event, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE events SET title = ?, date = ?, time = ?, location = ?, type = ?,
		 description = ?, registration_deadline = ?, capacity = ?, image = ? WHERE id = ?`),
		in.Title, in.Date, in.Time, in.Location, in.Type, in.Description,
		in.RegistrationDeadline, in.Capacity, in.Image, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating event %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // supported by every driver in use
		return nil, ErrEventNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes an event.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM events WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting event %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // supported by every driver in use
		return ErrEventNotFound
	}
	return nil
}
