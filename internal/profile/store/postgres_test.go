package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/testutil"
)

func TestPostgresStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	p := testutil.CompleteProfile()
	p.ID = id.NewProfileID()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WithArgs(p.ID.String(), "Acme production", "Acme Analytics Ltd.", sqlmock.AnyArg(), at, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := NewPostgres(db).Create(testutil.FixedClock(context.Background(), at), p)
	require.NoError(t, err)
	assert.Equal(t, p.ID, out.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err = NewPostgres(db).Create(context.Background(), testutil.CompleteProfile())
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := testutil.CompleteProfile()
	p.ID = id.NewProfileID()
	doc, err := json.Marshal(p)
	require.NoError(t, err)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	q := regexp.QuoteMeta("SELECT document, created_at, updated_at FROM profiles WHERE id = $1")
	mock.ExpectQuery(q).WithArgs(p.ID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"document", "created_at", "updated_at"}).AddRow(doc, created, updated))

	got, err := NewPostgres(db).Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Organization, got.Organization)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, updated.Equal(got.UpdatedAt))

	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"document", "created_at", "updated_at"}))
	_, err = NewPostgres(db).Get(context.Background(), id.NewProfileID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	mock.ExpectQuery(q).
		WillReturnRows(sqlmock.NewRows([]string{"document", "created_at", "updated_at"}).AddRow([]byte("{"), created, updated))
	_, err = NewPostgres(db).Get(context.Background(), id.NewProfileID())
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := testutil.CompleteProfile()
	profileID := id.NewProfileID()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := created.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles")).
		WithArgs(profileID.String(), "Acme production", "Acme Analytics Ltd.", sqlmock.AnyArg(), at).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	out, err := NewPostgres(db).Update(testutil.FixedClock(context.Background(), at), profileID, p)
	require.NoError(t, err)
	assert.Equal(t, profileID, out.ID)
	assert.True(t, created.Equal(out.CreatedAt))
	assert.True(t, at.Equal(out.UpdatedAt))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles")).WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
	_, err = NewPostgres(db).Update(context.Background(), profileID, p)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgres(db)
	profileID := id.NewProfileID()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM profiles")).WithArgs(profileID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Delete(context.Background(), profileID))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM profiles")).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Delete(context.Background(), profileID), sentinel.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, company_legal_name FROM profiles")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "company_legal_name"}).
			AddRow(profileID.String(), "Acme production", "Acme Analytics Ltd."))
	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, profileID, list[0].ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name")).WillReturnError(errors.New("connection reset"))
	_, err = s.List(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
