// Package audit provides access to the audit_logs table for
// recording and querying administrative activity.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Well-known actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
)

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// AuditLog represents a single audit trail entry.
type AuditLog struct { //nolint:revive // audit.AuditLog is clearer than audit.Log in calling code
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Source     string         `json:"source"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filter controls which audit logs to return.
type Filter struct {
	Action     string // optional: create, update, delete, login
	EntityType string // optional: administrator, user, donation, ...
	EntityID   string // optional
	Limit      int    // default 50, max 200
	Offset     int
}

// ListResult contains the paginated audit log results.
type ListResult struct {
	Logs   []AuditLog `json:"logs"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// Repository defines the interface for audit log operations.
type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLRepository stores audit logs through sqlx.
type SQLRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new audit log repository.
func NewRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// row mirrors audit_logs for scanning.
type row struct {
	ID         string         `db:"id"`
	Action     string         `db:"action"`
	EntityType string         `db:"entity_type"`
	EntityID   sql.NullString `db:"entity_id"`
	Actor      sql.NullString `db:"actor"`
	Source     string         `db:"source"`
	Details    sql.NullString `db:"details"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Create inserts a new audit log entry. ID, Source and CreatedAt are filled
// in when empty.
func (r *SQLRepository) Create(ctx context.Context, log *AuditLog) error {
	if log.ID == "" {
		log.ID = "aud-" + uuid.NewString()[:8]
	}
	if log.Source == "" {
		log.Source = "api"
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	var details any
	if log.Details != nil {
		b, err := json.Marshal(log.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		details = string(b)
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO audit_logs (id, action, entity_type, entity_id, actor, source, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		log.ID, log.Action, log.EntityType,
		nullableString(log.EntityID), nullableString(log.Actor),
		log.Source, details, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings so the column stores NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns audit logs matching the filter, most recent first.
func (r *SQLRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		conditions = append(conditions, "entity_type = ?")
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		conditions = append(conditions, "entity_id = ?")
		args = append(args, filter.EntityID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := r.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM audit_logs %s", where)) //nolint:gosec // WHERE built from parameterised conditions
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("counting audit logs: %w", err)
	}

	query := r.db.Rebind(fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions
		"SELECT id, action, entity_type, entity_id, actor, source, details, created_at FROM audit_logs %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		where,
	))
	args = append(args, filter.Limit, filter.Offset)

	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying audit logs: %w", err)
	}

	logs := make([]AuditLog, 0, len(rows))
	for _, rw := range rows {
		log := AuditLog{
			ID:         rw.ID,
			Action:     rw.Action,
			EntityType: rw.EntityType,
			EntityID:   rw.EntityID.String,
			Actor:      rw.Actor.String,
			Source:     rw.Source,
			CreatedAt:  rw.CreatedAt,
		}
		if rw.Details.Valid && rw.Details.String != "" {
			var details map[string]any
			if json.Unmarshal([]byte(rw.Details.String), &details) == nil {
				log.Details = details
			}
		}
		logs = append(logs, log)
	}

	return &ListResult{
		Logs:   logs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}
