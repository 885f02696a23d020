// Package ratelimit implements the fixed-window request governor that
// protects authentication endpoints from brute force and abuse.
//
// # Overview
//
// The governor counts requests per caller identity inside fixed time
// windows. It is profile-agnostic: policy values (max requests, window)
// are supplied by callers per route. Two standard profiles exist:
//
//   - RecoveryProfile: 5 requests / 15 minutes, anonymous credential recovery
//   - AdminProfile: 10 requests / 1 minute, authenticated admin endpoints
//
// # Counter Stores
//
// Record storage is injected behind the CounterStore interface:
//
//	governor := ratelimit.NewGovernor(ratelimit.NewMemoryStore())
//	governor.StartSweep(ctx, time.Minute)
//
//	// or shared across instances:
//	governor = ratelimit.NewGovernor(ratelimit.NewRedisStore(client, "ratelimit"))
//
// MemoryStore bounds memory to active windows via the periodic sweep.
// RedisStore delegates expiry to key TTLs.
//
// # Concurrency
//
// Check holds a per-identifier lock across its read-modify-write so the
// increment is atomic within a process. Store failures fail open.
//
// # Related Packages
//
//   - pkg/middleware: HTTP 429 denial responses and telemetry headers
package ratelimit
