package reset

import (
	"errors"
	"fmt"
)

// ErrStoreNotInitialized is returned when the backing tables do not exist
// yet. It carries an actionable message instead of a generic failure so
// operators can tell a missing migration from a real outage.
var ErrStoreNotInitialized = errors.New(
	"reset store is not initialized: run the schema migrations before serving traffic")

// ValidationError reports a malformed or missing input field. It is
// detected and returned before any state mutation or external call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a missing reset request
type NotFoundError struct {
	RequestID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reset request %s not found", e.RequestID)
}

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// ConflictError reports an attempted transition on a request that already
// left the pending state. Processing is not idempotent: a repeat call must
// surface as a conflict, never silently re-apply.
type ConflictError struct {
	RequestID string
	Status    Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("reset request %s was already %s", e.RequestID, e.Status)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// UpstreamError wraps a failure of an external collaborator (identity
// provider or relational store). The wrapped detail is for logs only;
// callers receive a generic message.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream checks if an error is an upstream collaborator failure
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
