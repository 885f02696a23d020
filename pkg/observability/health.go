package observability

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HealthCheck probes one dependency. Checks must be fast and bounded; the
// handler applies a short timeout around each.
type HealthCheck func(ctx context.Context) error

// HealthChecker aggregates dependency probes into one endpoint
type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck
}

// NewHealthChecker creates an empty health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// Register adds a named dependency probe
func (h *HealthChecker) Register(name string, check HealthCheck) {
	h.mu.Lock()
	h.checks[name] = check
	h.mu.Unlock()
}

// Handler serves the health endpoint: 200 when every probe passes,
// 503 with the failing probe names otherwise.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		checks := make(map[string]HealthCheck, len(h.checks))
		for name, check := range h.checks {
			checks[name] = check
		}
		h.mu.RUnlock()

		failing := make([]string, 0)
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			if err := check(ctx); err != nil {
				failing = append(failing, name)
			}
			cancel()
		}

		w.Header().Set("Content-Type", "application/json")
		if len(failing) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			body := `{"status":"unhealthy","failing":[`
			for i, name := range failing {
				if i > 0 {
					body += ","
				}
				body += `"` + name + `"`
			}
			body += `]}`
			w.Write([]byte(body))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})
}
