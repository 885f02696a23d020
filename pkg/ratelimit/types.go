package ratelimit

import "time"

// RateRecord tracks request counts for one identifier inside one fixed
// window. Records are owned exclusively by the governor's counter store.
type RateRecord struct {
	// Count is monotonically non-decreasing within a window and resets
	// to 1 (not 0) when a new window opens.
	Count int
	// WindowResetAt is when the current window expires.
	WindowResetAt time.Time
}

// Expired reports whether the record's window has already closed
func (r *RateRecord) Expired(now time.Time) bool {
	return !now.Before(r.WindowResetAt)
}

// Result is the outcome of a rate-limit check
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Remaining is the number of requests left in the current window.
	Remaining int
	// ResetTime is when the window expires, in epoch milliseconds.
	ResetTime int64
}

// Profile is a named rate-limit policy. The governor itself is
// profile-agnostic; callers supply the policy values per route.
type Profile struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

// RecoveryProfile is the strict policy for anonymous credential-recovery
// initiation: 5 requests per 15 minutes.
func RecoveryProfile() Profile {
	return Profile{
		Name:        "recovery",
		MaxRequests: 5,
		Window:      15 * time.Minute,
	}
}

// AdminProfile is the looser policy for authenticated administrative
// endpoints: 10 requests per minute.
func AdminProfile() Profile {
	return Profile{
		Name:        "admin",
		MaxRequests: 10,
		Window:      time.Minute,
	}
}
