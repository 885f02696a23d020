package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// lockShards bounds lock contention: identifiers hash onto a fixed set of
// mutexes rather than one global lock or one lock per all-time caller.
const lockShards = 64

// Governor is the request-rate governor. It applies fixed-window counting
// (the window restarts entirely when its boundary elapses, as opposed to a
// continuously sliding window) against an injected counter store.
//
// Against a plain CounterStore the read-of-existing-record and
// write-of-incremented-record are two store calls; Check holds a
// per-identifier lock across both so the increment is an indivisible step
// within this process. Stores that implement IncrementStore are counted
// with a single server-side step instead, which keeps the windows correct
// even when several instances share one store.
type Governor struct {
	store CounterStore
	locks [lockShards]sync.Mutex
	now   func() time.Time
}

// NewGovernor creates a governor over the given counter store
func NewGovernor(store CounterStore) *Governor {
	return &Governor{
		store: store,
		now:   time.Now,
	}
}

// Check records one request for the identifier and reports whether it is
// allowed under the given policy. On the first request for an identifier,
// or once the previous window has elapsed, a new window opens with count 1.
// A denied request does not increment the counter.
//
// Store failures fail open: an unreachable counter store degrades to no
// rate limiting rather than taking down the routes it protects.
func (g *Governor) Check(ctx context.Context, identifier string, maxRequests int, window time.Duration) (Result, error) {
	// A non-positive budget admits nothing. Server config validation
	// rejects such profiles up front, but library callers reach Check
	// directly.
	if maxRequests <= 0 {
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetTime: epochMillis(g.now().Add(window)),
		}, nil
	}

	if inc, ok := g.store.(IncrementStore); ok {
		return g.checkIncrement(ctx, inc, identifier, maxRequests, window)
	}

	lock := g.lockFor(identifier)
	lock.Lock()
	defer lock.Unlock()

	now := g.now()

	record, found, err := g.store.Get(ctx, identifier)
	if err != nil {
		return g.failOpen(maxRequests, window, now), err
	}

	if !found || record.Expired(now) {
		record = &RateRecord{
			Count:         1,
			WindowResetAt: now.Add(window),
		}
		if err := g.store.Set(ctx, identifier, record); err != nil {
			return g.failOpen(maxRequests, window, now), err
		}
		return Result{
			Allowed:   true,
			Remaining: maxRequests - 1,
			ResetTime: epochMillis(record.WindowResetAt),
		}, nil
	}

	if record.Count >= maxRequests {
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetTime: epochMillis(record.WindowResetAt),
		}, nil
	}

	record.Count++
	if err := g.store.Set(ctx, identifier, record); err != nil {
		return g.failOpen(maxRequests, window, now), err
	}

	remaining := maxRequests - record.Count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   true,
		Remaining: remaining,
		ResetTime: epochMillis(record.WindowResetAt),
	}, nil
}

// checkIncrement counts through the store's atomic increment. Requests
// arriving after the limit still advance the count, but counts past the
// limit are inert: the window boundary never moves, so the allow/deny
// sequence observed by callers matches the Get/Set path exactly.
func (g *Governor) checkIncrement(ctx context.Context, inc IncrementStore, identifier string, maxRequests int, window time.Duration) (Result, error) {
	record, err := inc.Increment(ctx, identifier, window)
	if err != nil {
		return g.failOpen(maxRequests, window, g.now()), err
	}

	if record.Count > maxRequests {
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetTime: epochMillis(record.WindowResetAt),
		}, nil
	}

	return Result{
		Allowed:   true,
		Remaining: maxRequests - record.Count,
		ResetTime: epochMillis(record.WindowResetAt),
	}, nil
}

// CheckProfile applies a named profile's policy values
func (g *Governor) CheckProfile(ctx context.Context, identifier string, profile Profile) (Result, error) {
	return g.Check(ctx, identifier, profile.MaxRequests, profile.Window)
}

// Sweep removes expired records from the underlying store
func (g *Governor) Sweep(ctx context.Context) (int, error) {
	return g.store.Sweep(ctx, g.now())
}

// StartSweep runs Sweep at a fixed interval, independent of request
// traffic, until the context is cancelled.
func (g *Governor) StartSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_, _ = g.Sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (g *Governor) lockFor(identifier string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(identifier))
	return &g.locks[h.Sum32()%lockShards]
}

func (g *Governor) failOpen(maxRequests int, window time.Duration, now time.Time) Result {
	return Result{
		Allowed:   true,
		Remaining: maxRequests - 1,
		ResetTime: epochMillis(now.Add(window)),
	}
}

func epochMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
