package audit

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLogger(t *testing.T) (*DBLogger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS security_events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	logger, err := NewDBLogger(db)
	require.NoError(t, err)
	return logger, mock
}

func TestNewDBLogger_RequiresDB(t *testing.T) {
	_, err := NewDBLogger(nil)
	assert.Error(t, err)
}

func TestDBLogger_Log(t *testing.T) {
	logger, mock := newMockLogger(t)
	actorID := uuid.New()

	event := NewEvent(EventTypeResetProcessed, EventStatusSuccess).
		WithActor(actorID).
		WithResource("req-123").
		WithMessage("processed")

	mock.ExpectExec("INSERT INTO security_events").
		WithArgs(event.Timestamp, "reset.processed", "success", actorID.String(), nil, "req-123", "processed").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, logger.Log(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLogger_Log_AnonymousEvent(t *testing.T) {
	logger, mock := newMockLogger(t)

	event := NewEvent(EventTypeRateLimited, EventStatusDenied).
		WithIdentifier("203.0.113.7")

	mock.ExpectExec("INSERT INTO security_events").
		WithArgs(event.Timestamp, "ratelimit.denied", "denied", nil, "203.0.113.7", nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, logger.Log(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}
