package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Rate governor metrics
	RateLimitAllowedTotal *prometheus.CounterVec
	RateLimitDeniedTotal  *prometheus.CounterVec
	RateLimitSweepRemoved prometheus.Counter

	// Access policy metrics
	AccessDecisionsTotal *prometheus.CounterVec

	// Reset workflow metrics
	ResetSubmittedTotal   prometheus.Counter
	ResetTransitionsTotal *prometheus.CounterVec
	ResetUpstreamFailures prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_http_requests_total",
				Help: "Total HTTP requests by method, route, and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatehouse_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RateLimitAllowedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_ratelimit_allowed_total",
				Help: "Requests allowed by the rate governor, by profile",
			},
			[]string{"profile"},
		),
		RateLimitDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_ratelimit_denied_total",
				Help: "Requests denied by the rate governor, by profile",
			},
			[]string{"profile"},
		),
		RateLimitSweepRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_ratelimit_sweep_removed_total",
				Help: "Expired rate records removed by the periodic sweep",
			},
		),
		AccessDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_access_decisions_total",
				Help: "Access policy decisions by outcome",
			},
			[]string{"outcome"},
		),
		ResetSubmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_reset_submitted_total",
				Help: "Credential reset requests submitted",
			},
		),
		ResetTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_reset_transitions_total",
				Help: "Reset request transitions by terminal status",
			},
			[]string{"status"},
		),
		ResetUpstreamFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_reset_upstream_failures_total",
				Help: "Identity provider or store failures during processing",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RateLimitAllowedTotal,
		m.RateLimitDeniedTotal,
		m.RateLimitSweepRemoved,
		m.AccessDecisionsTotal,
		m.ResetSubmittedTotal,
		m.ResetTransitionsTotal,
		m.ResetUpstreamFailures,
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
