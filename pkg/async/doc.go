// Package async provides safe concurrent execution primitives for
// background tasks: fire-and-forget goroutines and a bounded worker pool,
// both with panic recovery and per-task timeouts.
//
// Use SafeGo instead of a bare `go func()` for best-effort work whose
// failure must never crash the process, and WorkerPool where submissions
// need backpressure and draining on shutdown (the security-event log
// dispatcher).
package async
