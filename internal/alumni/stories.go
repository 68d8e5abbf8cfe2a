package alumni

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const storyColumns = "id, name, graduation_year, title, image, summary, achievements, created_at"

// StoryRepository persists success stories.
type StoryRepository struct {
	db *sqlx.DB
}

// NewStoryRepository creates a success story repository.
func NewStoryRepository(db *sqlx.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// List returns all stories, newest first.
func (r *StoryRepository) List(ctx context.Context) ([]Story, error) {
	stories := []Story{}
	if err := r.db.SelectContext(ctx, &stories, "SELECT "+storyColumns+" FROM success_stories ORDER BY id DESC"); err != nil {
		return nil, fmt.Errorf("listing success stories: %w", err)
	}
	return stories, nil
}

// Get returns one story.
func (r *StoryRepository) Get(ctx context.Context, id int64) (*Story, error) {
	var s Story
	err := r.db.GetContext(ctx, &s, r.db.Rebind("SELECT "+storyColumns+" FROM success_stories WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting success story %d: %w", id, err)
	}
	return &s, nil
}

// Create inserts a story. A nil achievements list is stored as [].
func (r *StoryRepository) Create(ctx context.Context, in StoryInput) (*Story, error) {
	if in.Achievements == nil {
		in.Achievements = Achievements{}
	}

	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO success_stories (name, graduation_year, title, image, summary, achievements)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		in.Name, in.GraduationYear, in.Title, in.Image, in.Summary, in.Achievements,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating success story: %w", err)
	}
	return r.Get(ctx, id)
}

// Delete removes a story.
func (r *StoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM success_stories WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting success story %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // supported by every driver in use
		return ErrStoryNotFound
	}
	return nil
}
