package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger records security events. Recording is best-effort everywhere it
// is called: an audit failure never fails the operation that produced
// the event.
type Logger interface {
	// Log records one event.
	Log(ctx context.Context, event *Event) error
	// Close flushes and releases the logger.
	Close() error
}

// NewEvent builds an event with the timestamp filled in
func NewEvent(eventType EventType, status EventStatus) *Event {
	return &Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
	}
}

// WithActor sets the acting principal id
func (e *Event) WithActor(id uuid.UUID) *Event {
	e.ActorID = &id
	return e
}

// WithIdentifier sets the anonymous caller identifier
func (e *Event) WithIdentifier(identifier string) *Event {
	e.Identifier = identifier
	return e
}

// WithResource sets the acted-on resource id
func (e *Event) WithResource(id string) *Event {
	e.ResourceID = id
	return e
}

// WithMessage sets the free-form message
func (e *Event) WithMessage(message string) *Event {
	e.Message = message
	return e
}

// NopLogger discards events
type NopLogger struct{}

// Log discards the event
func (NopLogger) Log(ctx context.Context, event *Event) error { return nil }

// Close is a no-op
func (NopLogger) Close() error { return nil }
