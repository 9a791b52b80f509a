package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
)

// Schema creates the form_records table.
const Schema = `
CREATE TABLE IF NOT EXISTS form_records (
	id          BIGSERIAL PRIMARY KEY,
	profile_id  UUID NOT NULL,
	doc_type    TEXT NOT NULL,
	form        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS form_records_profile_idx ON form_records (profile_id, id);
`

type formRow struct {
	ProfileID uuid.UUID `db:"profile_id"`
	DocType   string    `db:"doc_type"`
	Form      []byte    `db:"form"`
	CreatedAt time.Time `db:"created_at"`
}

// PostgresFormLog is an append-only form log.
type PostgresFormLog struct {
	db *sqlx.DB
}

func NewPostgresFormLog(db *sqlx.DB) *PostgresFormLog {
	return &PostgresFormLog{db: db}
}

func (s *PostgresFormLog) Append(ctx context.Context, record *models.FormRecord) error {
	row := formRow{
		ProfileID: uuid.UUID(record.ProfileID),
		DocType:   string(record.DocType),
		Form:      record.Form,
		CreatedAt: record.CreatedAt,
	}
	query := `
		INSERT INTO form_records (profile_id, doc_type, form, created_at)
		VALUES (:profile_id, :doc_type, :form, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert form record: %w", err)
	}
	return nil
}

func (s *PostgresFormLog) ListByProfile(ctx context.Context, profileID id.ProfileID) ([]*models.FormRecord, error) {
	var rows []formRow
	query := `
		SELECT profile_id, doc_type, form, created_at
		FROM form_records
		WHERE profile_id = $1
		ORDER BY id ASC
	`
	if err := s.db.SelectContext(ctx, &rows, query, uuid.UUID(profileID)); err != nil {
		return nil, fmt.Errorf("list form records: %w", err)
	}
	out := make([]*models.FormRecord, len(rows))
	for i, r := range rows {
		out[i] = &models.FormRecord{
			ProfileID: id.ProfileID(r.ProfileID),
			DocType:   models.DocType(r.DocType),
			Form:      r.Form,
			CreatedAt: r.CreatedAt.UTC(),
		}
	}
	return out, nil
}
