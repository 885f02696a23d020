// Package httputil provides HTTP handler utilities for consistent error
// envelopes, JSON encoding/decoding, and request parsing.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Error codes callers can branch on instead of message text.
const (
	CodeValidationFailed    = "validation_failed"
	CodeRateLimited         = "rate_limited"
	CodeUnauthenticated     = "unauthenticated"
	CodeForbiddenRole       = "forbidden_role"
	CodeForbiddenBranch     = "forbidden_branch"
	CodeForbiddenDepartment = "forbidden_department"
	CodeNotFound            = "not_found"
	CodeConflict            = "conflict"
	CodeUpstreamError       = "upstream_error"
	CodeStoreNotInitialized = "store_not_initialized"
	CodeInternalError       = "internal_error"
)

// ErrorResponse is the single error envelope every surface returns
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteErrorEnvelope writes the standard error envelope
func WriteErrorEnvelope(w http.ResponseWriter, status int, code, message string) {
	_ = WriteJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}

// WriteValidationError writes a validation error response (400 Bad Request)
func WriteValidationError(w http.ResponseWriter, message string) {
	WriteErrorEnvelope(w, http.StatusBadRequest, CodeValidationFailed, message)
}

// WriteUnauthenticated writes an unauthenticated error (401)
func WriteUnauthenticated(w http.ResponseWriter, message string) {
	WriteErrorEnvelope(w, http.StatusUnauthorized, CodeUnauthenticated, message)
}

// WriteForbidden writes a forbidden error (403) with the given code
func WriteForbidden(w http.ResponseWriter, code, message string) {
	WriteErrorEnvelope(w, http.StatusForbidden, code, message)
}

// WriteNotFound writes a not found error response (404)
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteErrorEnvelope(w, http.StatusNotFound, CodeNotFound, message)
}

// WriteConflict writes a conflict error (409)
func WriteConflict(w http.ResponseWriter, message string) {
	WriteErrorEnvelope(w, http.StatusConflict, CodeConflict, message)
}

// WriteUpstreamError writes an upstream failure (502) with a generic
// message; callers are responsible for logging the real error.
func WriteUpstreamError(w http.ResponseWriter) {
	WriteErrorEnvelope(w, http.StatusBadGateway, CodeUpstreamError,
		"an upstream dependency failed; the operation can be retried")
}

// WriteInternalError writes an internal server error (500) with a generic
// message; internal detail must never reach the caller.
func WriteInternalError(w http.ResponseWriter) {
	WriteErrorEnvelope(w, http.StatusInternalServerError, CodeInternalError,
		"an unexpected error occurred")
}

// RateLimitedResponse is the envelope body of a 429 denial
type RateLimitedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	RetryAfter int64  `json:"retryAfter"`
}

// WriteRateLimited writes the fixed 429 denial shape: Retry-After in
// seconds plus rate-limit telemetry headers.
func WriteRateLimited(w http.ResponseWriter, limit int, resetEpochMillis int64, retryAfterSeconds int64) {
	w.Header().Set("Retry-After", formatInt(retryAfterSeconds))
	w.Header().Set("X-RateLimit-Limit", formatInt(int64(limit)))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", formatInt(resetEpochMillis))
	_ = WriteJSON(w, http.StatusTooManyRequests, RateLimitedResponse{
		Error:      http.StatusText(http.StatusTooManyRequests),
		Message:    "too many requests, slow down",
		Code:       CodeRateLimited,
		RetryAfter: retryAfterSeconds,
	})
}
