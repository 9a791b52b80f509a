package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

// Schema creates the profiles table. The document column holds the full
// profile; name and company are copied out for listings.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id                 UUID PRIMARY KEY,
	name               TEXT NOT NULL,
	company_legal_name TEXT NOT NULL DEFAULT '',
	document           JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS profiles_name_idx ON profiles (name, id);
`

const uniqueViolation = "23505"

// PostgresStore persists profiles as JSONB documents.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	out := forCreate(ctx, p)
	doc, err := encode(out)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO profiles (id, name, company_legal_name, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(out.ID), out.Name, out.Organization.CompanyLegalName, doc, out.CreatedAt, out.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	var (
		doc                  []byte
		createdAt, updatedAt time.Time
	)
	query := `SELECT document, created_at, updated_at FROM profiles WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(profileID)).Scan(&doc, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	p, err := decode(doc)
	if err != nil {
		return nil, err
	}
	p.ID = profileID
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = updatedAt.UTC()
	return p, nil
}

// Update overwrites the stored document. The creation time comes back from
// the row so the returned profile matches what Get would read.
func (s *PostgresStore) Update(ctx context.Context, profileID id.ProfileID, p *models.Profile) (*models.Profile, error) {
	out := forUpdate(ctx, profileID, p, time.Time{})
	doc, err := encode(out)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE profiles
		SET name = $2, company_legal_name = $3, document = $4, updated_at = $5
		WHERE id = $1
		RETURNING created_at
	`
	var createdAt time.Time
	err = s.db.QueryRowContext(ctx, query,
		uuid.UUID(profileID), out.Name, out.Organization.CompanyLegalName, doc, out.UpdatedAt).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	out.CreatedAt = createdAt.UTC()
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, profileID id.ProfileID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, uuid.UUID(profileID))
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.ProfileSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, company_legal_name FROM profiles ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []models.ProfileSummary{}
	for rows.Next() {
		var (
			rowID uuid.UUID
			sum   models.ProfileSummary
		)
		if err := rows.Scan(&rowID, &sum.Name, &sum.CompanyLegalName); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		sum.ID = id.ProfileID(rowID)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}
