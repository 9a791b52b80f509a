package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "lexdraft/pkg/domain"
	audit "lexdraft/pkg/platform/audit"
)

// Schema creates the audit_events table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	profile_id  UUID,
	subject     TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	decision    TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL DEFAULT '',
	doc_types   TEXT[] NOT NULL DEFAULT '{}',
	request_id  TEXT NOT NULL DEFAULT '',
	actor_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_profile_idx ON audit_events (profile_id, timestamp);
`

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an event under a fresh ID.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	return s.AppendWithID(ctx, uuid.New(), event)
}

// AppendWithID inserts an event with a caller-chosen ID. Duplicate IDs are
// ignored, so replaying a Kafka partition is idempotent.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, profile_id, subject, action,
			decision, reason, doc_types, request_id, actor_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	var profileID *uuid.UUID
	if !event.ProfileID.IsNil() {
		pid := uuid.UUID(event.ProfileID)
		profileID = &pid
	}
	docTypes := event.DocTypes
	if docTypes == nil {
		docTypes = []string{}
	}

	_, err := s.db.ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		profileID,
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		pq.Array(docTypes),
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByProfile returns a profile's events, oldest first.
func (s *Store) ListByProfile(ctx context.Context, profileID id.ProfileID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, profile_id, subject, action,
			   decision, reason, doc_types, request_id, actor_id
		FROM audit_events
		WHERE profile_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(profileID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category  string
			event     audit.Event
			profileID *uuid.UUID
			docTypes  []string
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&profileID,
			&event.Subject,
			&event.Action,
			&event.Decision,
			&event.Reason,
			pq.Array(&docTypes),
			&event.RequestID,
			&event.ActorID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if profileID != nil {
			event.ProfileID = id.ProfileID(*profileID)
		}
		if len(docTypes) > 0 {
			event.DocTypes = docTypes
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
