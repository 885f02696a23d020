package ratelimit

import (
	"context"
	"sync"
	"time"
)

// CounterStore abstracts the record storage behind the governor so the same
// check logic can target an in-process map or a shared external cache.
type CounterStore interface {
	// Get returns the record for an identifier, or found=false if none exists.
	Get(ctx context.Context, identifier string) (record *RateRecord, found bool, err error)
	// Set stores the record for an identifier.
	Set(ctx context.Context, identifier string, record *RateRecord) error
	// Delete removes the record for an identifier.
	Delete(ctx context.Context, identifier string) error
	// Sweep removes every record whose window has already closed and
	// returns the number removed. Stores with server-side expiry may
	// implement this as a no-op.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// IncrementStore is implemented by counter stores that can open-or-advance
// a window in a single server-side step. The governor prefers this over the
// Get/Set pair when the store offers it, so instances sharing one external
// store never race between the read and the write.
type IncrementStore interface {
	// Increment adds one request to the identifier's current window,
	// opening a fresh window when none exists, and returns the resulting
	// record.
	Increment(ctx context.Context, identifier string, window time.Duration) (*RateRecord, error)
}

// MemoryStore is the in-process CounterStore. Memory is bounded by the
// number of active windows: the periodic sweep removes expired records,
// and the first request after expiry lazily replaces them.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*RateRecord
}

// NewMemoryStore creates an empty in-process counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*RateRecord),
	}
}

// Get returns a copy of the stored record so callers never share mutable state
func (s *MemoryStore) Get(ctx context.Context, identifier string) (*RateRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[identifier]
	if !ok {
		return nil, false, nil
	}
	copied := *rec
	return &copied, true, nil
}

// Set stores the record for an identifier
func (s *MemoryStore) Set(ctx context.Context, identifier string, record *RateRecord) error {
	copied := *record
	s.mu.Lock()
	s.records[identifier] = &copied
	s.mu.Unlock()
	return nil
}

// Delete removes the record for an identifier
func (s *MemoryStore) Delete(ctx context.Context, identifier string) error {
	s.mu.Lock()
	delete(s.records, identifier)
	s.mu.Unlock()
	return nil
}

// Sweep removes expired records. The scan runs under the read lock and
// collects candidates; deletion happens in a second pass that re-checks
// expiry under the write lock, so concurrent checks are never blocked for
// the full O(n) scan.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	expired := make([]string, 0)
	for id, rec := range s.records {
		if rec.Expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return 0, nil
	}

	removed := 0
	s.mu.Lock()
	for _, id := range expired {
		// A new window may have opened between the two passes.
		if rec, ok := s.records[id]; ok && rec.Expired(now) {
			delete(s.records, id)
			removed++
		}
	}
	s.mu.Unlock()
	return removed, nil
}

// Len returns the number of tracked identifiers (for tests and metrics)
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
