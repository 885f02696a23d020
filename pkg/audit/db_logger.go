package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// DBLogger records security events in a relational table
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger, ensuring the
// security_events table exists.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	logger := &DBLogger{db: db}
	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure security_events table: %w", err)
	}
	return logger, nil
}

func (l *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS security_events (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		event_type VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL,
		actor_id VARCHAR(36),
		identifier VARCHAR(255),
		resource_id VARCHAR(255),
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_security_events_timestamp ON security_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_security_events_event_type ON security_events(event_type);
	`
	_, err := l.db.Exec(query)
	return err
}

// Log records one event
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO security_events (timestamp, event_type, status, actor_id, identifier, resource_id, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var actorID interface{}
	if event.ActorID != nil {
		actorID = event.ActorID.String()
	}

	_, err := l.db.ExecContext(ctx, query,
		event.Timestamp, string(event.EventType), string(event.Status),
		actorID, nullIfEmpty(event.Identifier), nullIfEmpty(event.ResourceID), nullIfEmpty(event.Message))
	if err != nil {
		return fmt.Errorf("failed to insert security event: %w", err)
	}
	return nil
}

// Close releases the logger; the shared database handle stays open
func (l *DBLogger) Close() error {
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
