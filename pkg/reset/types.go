package reset

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a reset request. Transitions are
// one-way: pending is initial, processed and rejected are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusRejected  Status = "rejected"
)

// Terminal reports whether the status admits no further transitions
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusRejected
}

// ResetRequest is one credential-reset request. A request is created even
// when no matching user exists (UserID nil), so responses never reveal
// which emails are registered.
type ResetRequest struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	UserEmail string     `json:"user_email"`
	UserName  *string    `json:"user_name,omitempty"`
	Status    Status     `json:"status"`
	// ProcessedBy is non-nil exactly when Status is terminal.
	ProcessedBy *uuid.UUID `json:"processed_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// User is the slice of the platform user record the workflow needs
type User struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// RequestSubmitted is the domain event emitted after a successful insert,
// consumed by the administrator notification collaborator. It replaces
// the database-trigger mechanics the workflow's success contract must not
// depend on.
type RequestSubmitted struct {
	RequestID   uuid.UUID
	Email       string
	UserMatched bool
	CreatedAt   time.Time
}
