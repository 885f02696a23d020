// Package audit records security events: reset submissions and
// transitions, authorization denials, and rate-limit denials.
//
// Recording is best-effort by contract: callers log and continue when an
// event cannot be written. Storage semantics beyond the insert (rotation,
// export, retention) belong to the platform's audit pipeline, not here.
package audit
