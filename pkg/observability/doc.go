// Package observability provides structured logging, Prometheus metrics,
// health checks, and panic recovery for the gatehouse service.
//
// Logging is JSON via stdlib slog behind a small leveled wrapper. Metrics
// cover HTTP traffic, rate governor decisions, access policy outcomes,
// and reset workflow transitions; they are served from the health
// listener alongside the dependency probes.
package observability
