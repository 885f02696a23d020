// Package middleware provides the HTTP request guards: session
// authentication, access-control enforcement, and rate limiting. Each
// guard is an http.Handler wrapper so routes compose their own chains.
package middleware
