// Package config provides application configuration management from
// environment variables, with an optional YAML file overlay.
//
// # Overview
//
// Configuration loads in three layers: built-in defaults, then the YAML
// file named by GATEHOUSE_CONFIG_FILE (if set), then GATEHOUSE_*
// environment variables. Later layers win. The loaded configuration is
// validated before use.
//
// # Configuration Structure
//
// Server settings: listen host/port, health port, HTTP timeouts.
// Database settings: driver (postgres or sqlite3) and connection URL.
// Redis settings: optional shared rate-counter store address.
// Session settings: the HMAC secret for session token validation.
// Rate-limit settings: per-profile limits/windows and the sweep schedule.
// Observability settings: log level, metrics, and the security-event log.
package config
