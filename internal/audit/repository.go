// Package audit stores the trail of applied actuator commands in the
// actuator_events table.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Command sources.
const (
	SourceMQTT = "mqtt"
	SourceAuto = "auto"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Event is one applied actuator command.
type Event struct {
	ID         string    `json:"id"`
	ActuatorID string    `json:"actuator_id"`
	Command    string    `json:"command"`
	Source     string    `json:"source"`
	Previous   bool      `json:"previous"`
	Engaged    bool      `json:"engaged"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter controls which events List returns.
type Filter struct {
	ActuatorID string // optional
	Source     string // optional: mqtt or auto
	Limit      int    // default 50, max 200
}

// Repository defines the audit trail operations.
type Repository interface {
	Record(ctx context.Context, ev *Event) error
	List(ctx context.Context, filter Filter) ([]Event, error)
}

// SQLiteRepository persists events to SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts ev. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Record(ctx context.Context, ev *Event) error {
	if ev.ActuatorID == "" {
		return fmt.Errorf("%w: actuator_id is required", ErrInvalidEvent)
	}
	if ev.Source != SourceMQTT && ev.Source != SourceAuto {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidEvent, ev.Source)
	}
	if ev.ID == "" {
		ev.ID = NewEventID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO actuator_events (id, actuator_id, command, source, previous, engaged, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ActuatorID, ev.Command, ev.Source,
		ev.Previous, ev.Engaged,
		ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting actuator event: %w", err)
	}
	return nil
}

// List returns events matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Event, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}

	var conditions []string
	var args []any
	if filter.ActuatorID != "" {
		conditions = append(conditions, "actuator_id = ?")
		args = append(args, filter.ActuatorID)
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, actuator_id, command, source, previous, engaged, created_at FROM actuator_events %s ORDER BY created_at DESC, rowid DESC LIMIT ?",
		where,
	)
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying actuator events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var createdAt string
		if err := rows.Scan(&ev.ID, &ev.ActuatorID, &ev.Command, &ev.Source,
			&ev.Previous, &ev.Engaged, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning actuator event: %w", err)
		}

		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp %q: %w", createdAt, err)
		}
		ev.CreatedAt = t
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actuator events: %w", err)
	}

	return events, nil
}

// NewEventID returns an identifier of the form "evt-xxxxxxxx".
func NewEventID() string {
	return "evt-" + uuid.NewString()[:8]
}

// NopRepository discards events. Used when the database is disabled.
type NopRepository struct{}

// Record does nothing.
func (NopRepository) Record(context.Context, *Event) error { return nil }

// List always returns an empty slice.
func (NopRepository) List(context.Context, Filter) ([]Event, error) { return []Event{}, nil }
