package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the category of security event
type EventType string

const (
	// Reset workflow events
	EventTypeResetSubmitted EventType = "reset.submitted"
	EventTypeResetProcessed EventType = "reset.processed"
	EventTypeResetRejected  EventType = "reset.rejected"

	// Authorization events
	EventTypeAccessDenied EventType = "access.denied"

	// Rate governor events
	EventTypeRateLimited EventType = "ratelimit.denied"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event is one recorded security event
type Event struct {
	ID        int64       `json:"id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// ActorID is the authenticated principal, when there is one.
	ActorID *uuid.UUID `json:"actor_id,omitempty"`
	// Identifier is the rate-limit identity for anonymous events.
	Identifier string `json:"identifier,omitempty"`

	ResourceID string `json:"resource_id,omitempty"`
	Message    string `json:"message,omitempty"`
}
