package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "lexdraft/pkg/domain"
	audit "lexdraft/pkg/platform/audit"
)

func TestStore_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	profileID := id.NewProfileID()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).
		WithArgs(sqlmock.AnyArg(), "compliance", at, sqlmock.AnyArg(), "Acme", "generation_completed",
			"completed", "", sqlmock.AnyArg(), "req-1", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = New(db).Append(context.Background(), audit.Event{
		Timestamp: at,
		ProfileID: profileID,
		Subject:   "Acme",
		Action:    string(audit.EventGenerationCompleted),
		Decision:  "completed",
		DocTypes:  []string{"tos"},
		RequestID: "req-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AppendFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).WillReturnError(errors.New("connection reset"))

	err = New(db).Append(context.Background(), audit.Event{Action: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit event")
}

func TestStore_ListByProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	profileID := id.NewProfileID()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"category", "timestamp", "profile_id", "subject", "action",
		"decision", "reason", "doc_types", "request_id", "actor_id",
	}).
		AddRow("operations", at, uuid.UUID(profileID).String(), "Acme", "generation_blocked", "blocked", "2 gaps", "{tos,privacy}", "req-1", "ops@acme.test").
		AddRow("compliance", at.Add(time.Minute), uuid.UUID(profileID).String(), "Acme", "profile_updated", "", "", "{}", "", "")

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_events")).
		WithArgs(uuid.UUID(profileID)).
		WillReturnRows(rows)

	events, err := New(db).ListByProfile(context.Background(), profileID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, audit.CategoryOperations, events[0].Category)
	assert.Equal(t, profileID, events[0].ProfileID)
	assert.Equal(t, []string{"tos", "privacy"}, events[0].DocTypes)
	assert.Equal(t, "ops@acme.test", events[0].ActorID)
	assert.Nil(t, events[1].DocTypes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
