package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/orgkit/gatehouse/pkg/audit"
	"github.com/orgkit/gatehouse/pkg/httputil"
	"github.com/orgkit/gatehouse/pkg/observability"
	"github.com/orgkit/gatehouse/pkg/ratelimit"
)

// RateLimiter throttles routes against a shared governor. Each route
// picks its own profile and identifier strategy.
type RateLimiter struct {
	governor *ratelimit.Governor
	log      *observability.Logger
	metrics  *observability.Metrics
	audit    audit.Logger
}

// NewRateLimiter creates rate-limiting middleware. Metrics and audit
// logger may be nil.
func NewRateLimiter(governor *ratelimit.Governor, log *observability.Logger, metrics *observability.Metrics, auditLogger audit.Logger) *RateLimiter {
	return &RateLimiter{
		governor: governor,
		log:      log,
		metrics:  metrics,
		audit:    auditLogger,
	}
}

// Limit wraps a handler with the given profile. keyFn overrides the
// identifier derivation per route; pass nil for the default client IP
// resolution.
func (m *RateLimiter) Limit(profile ratelimit.Profile, keyFn ratelimit.KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := ratelimit.ClientIdentifier(r, keyFn)
			result, err := m.governor.CheckProfile(r.Context(), identifier, profile)
			if err != nil {
				// Fail open: an unreachable counter store must not take
				// down the routes it protects.
				if m.log != nil {
					m.log.WithError(err).WithField("identifier", identifier).
						Warn("rate limit store unavailable, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				if m.metrics != nil {
					m.metrics.RateLimitDeniedTotal.WithLabelValues(profile.Name).Inc()
				}
				m.recordDenial(r, profile, identifier)
				httputil.WriteRateLimited(w, profile.MaxRequests, result.ResetTime, retryAfterSeconds(result.ResetTime))
				return
			}

			if m.metrics != nil {
				m.metrics.RateLimitAllowedTotal.WithLabelValues(profile.Name).Inc()
			}
			w.Header().Set("X-RateLimit-Limit", formatInt(int64(profile.MaxRequests)))
			w.Header().Set("X-RateLimit-Remaining", formatInt(int64(result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", formatInt(result.ResetTime))
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimiter) recordDenial(r *http.Request, profile ratelimit.Profile, identifier string) {
	if m.audit == nil {
		return
	}
	event := audit.NewEvent(audit.EventTypeRateLimited, audit.EventStatusDenied).
		WithIdentifier(identifier).
		WithResource(r.URL.Path).
		WithMessage(profile.Name)
	if principal := GetPrincipal(r); principal != nil {
		event = event.WithActor(principal.ID)
	}
	_ = m.audit.Log(r.Context(), event)
}

func retryAfterSeconds(resetEpochMillis int64) int64 {
	millis := resetEpochMillis - time.Now().UnixMilli()
	if millis <= 0 {
		return 1
	}
	// Round up so clients never retry before the window turns over.
	return (millis + 999) / 1000
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
