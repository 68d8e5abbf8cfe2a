package donations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	donationColumns   = "id, title, description, goal, raised, image, mobile, category, created_at"
	mentorshipColumns = "id, name, email, expertise, session_date, session_topic, created_at"
)

// Repository persists donation initiatives and mentorship requests.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a donations repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns all initiatives in creation order.
func (r *Repository) List(ctx context.Context) ([]Donation, error) {
	donations := []Donation{}
	if err := r.db.SelectContext(ctx, &donations, "SELECT "+donationColumns+" FROM donations ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("listing donations: %w", err)
	}
	return donations, nil
}

// Get returns one initiative.
func (r *Repository) Get(ctx context.Context, id int64) (*Donation, error) {
	var d Donation
	err := r.db.GetContext(ctx, &d, r.db.Rebind("SELECT "+donationColumns+" FROM donations WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDonationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting donation %d: %w", id, err)
	}
	return &d, nil
}

// Create inserts an initiative with nothing raised yet.
func (r *Repository) Create(ctx context.Context, in Input) (*Donation, error) {
	goal, err := in.Goal.Positive()
	if err != nil {
		return nil, err
	}

	var id int64
	err = r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO donations (title, description, goal, raised, image, mobile, category)
		 VALUES (?, ?, ?, 0, ?, ?, ?) RETURNING id`),
		in.Title, in.Description, goal, in.Image, in.Mobile, in.Category,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating donation: %w", err)
	}
	return r.Get(ctx, id)
}

// AddRaised adds amount to an initiative's raised total in a single
// statement and returns the updated row.
func (r *Repository) AddRaised(ctx context.Context, id int64, amount Amount) (*Donation, error) {
	v, err := amount.Positive()
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE donations SET raised = raised + ? WHERE id = ?"), v, id)
	if err != nil {
		return nil, fmt.Errorf("updating donation %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // supported by every driver in use
		return nil, ErrDonationNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes an initiative.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM donations WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting donation %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // supported by every driver in use
		return ErrDonationNotFound
	}
	return nil
}

// CreateMentorship records a mentorship sign-up.
func (r *Repository) CreateMentorship(ctx context.Context, in MentorshipInput) (*Mentorship, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO mentorships (name, email, expertise, session_date, session_topic)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		in.Name, in.Email, in.Expertise, in.SessionDate, in.SessionTopic,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating mentorship: %w", err)
	}

	var m Mentorship
	if err := r.db.GetContext(ctx, &m, r.db.Rebind("SELECT "+mentorshipColumns+" FROM mentorships WHERE id = ?"), id); err != nil {
		return nil, fmt.Errorf("reading mentorship %d: %w", id, err)
	}
	return &m, nil
}

// ListMentorships returns every sign-up, newest first.
func (r *Repository) ListMentorships(ctx context.Context) ([]Mentorship, error) {
	list := []Mentorship{}
	if err := r.db.SelectContext(ctx, &list, "SELECT "+mentorshipColumns+" FROM mentorships ORDER BY id DESC"); err != nil {
		return nil, fmt.Errorf("listing mentorships: %w", err)
	}
	return list, nil
}
