// Package reset implements the admin-mediated credential-reset workflow.
//
// # Overview
//
// Requests move through a three-state machine: pending (initial),
// processed, rejected (terminal). Transitions are one-way and happen at
// most once; a repeated process or reject surfaces as a conflict.
//
// Submit never reveals whether an email matched an account: a request row
// is created either way, with user_id null when nothing matched.
//
// # Collaborators
//
//   - Store: relational persistence (PostgreSQL, SQLite for development)
//   - IdentityProvider: external credential rotation
//   - Notifier: consumes RequestSubmitted events for admin notification
//
// # Failure handling
//
// The terminal transition is a single conditional UPDATE guarded on the
// pending status, so two concurrent process calls cannot both succeed.
// Identity-provider failures happen before the transition and leave the
// request pending, making process safely retryable. A missing
// reset_requests table surfaces as ErrStoreNotInitialized with an
// actionable message rather than a generic failure.
package reset
