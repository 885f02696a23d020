package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orgkit/gatehouse/pkg/access"
	"github.com/orgkit/gatehouse/pkg/audit"
	"github.com/orgkit/gatehouse/pkg/auth"
	"github.com/orgkit/gatehouse/pkg/middleware"
	"github.com/orgkit/gatehouse/pkg/observability"
	"github.com/orgkit/gatehouse/pkg/ratelimit"
	"github.com/orgkit/gatehouse/pkg/reset"
)

// Server is the public API surface: the reset workflow routes behind
// their authentication, authorization, and rate-limit chains.
type Server struct {
	router *mux.Router
	log    *observability.Logger
}

// Options collects the collaborators a Server needs. Metrics and audit
// logger may be nil; profiles fall back to the defaults when zero.
type Options struct {
	Workflow  *reset.Workflow
	Validator *auth.SessionValidator
	Governor  *ratelimit.Governor
	Engine    *access.Engine
	Logger    *observability.Logger
	Metrics   *observability.Metrics
	Audit     audit.Logger

	// RecoveryProfile throttles anonymous initiation; AdminProfile
	// throttles the administrative routes.
	RecoveryProfile ratelimit.Profile
	AdminProfile    ratelimit.Profile
}

// NewServer wires the routes and middleware chains
func NewServer(opts Options) *Server {
	if opts.RecoveryProfile.MaxRequests == 0 {
		opts.RecoveryProfile = ratelimit.RecoveryProfile()
	}
	if opts.AdminProfile.MaxRequests == 0 {
		opts.AdminProfile = ratelimit.AdminProfile()
	}
	if opts.Engine == nil {
		opts.Engine = access.NewEngine()
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Server{
		router: mux.NewRouter(),
		log:    opts.Logger,
	}

	authn := middleware.NewAuth(opts.Validator, false)
	guard := middleware.NewAccessGuard(opts.Engine, opts.Metrics, opts.Audit)
	limiter := middleware.NewRateLimiter(opts.Governor, opts.Logger, opts.Metrics, opts.Audit)

	// Anonymous initiation: strict limit keyed by client address.
	anonymous := chain(
		limiter.Limit(opts.RecoveryProfile, nil),
	)

	// Administrative routes: session first so the limit keys on the
	// authenticated principal rather than a shared proxy address.
	admin := chain(
		authn.Handler,
		limiter.Limit(opts.AdminProfile, principalKey),
		guard.Require(access.RequireRoles(access.RoleAdmin)),
	)

	handlers := NewResetHandlers(opts.Workflow, opts.Logger, opts.Metrics, opts.Audit)
	handlers.RegisterRoutes(s.router, anonymous, admin)

	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
	}
	s.router.Use(observability.PanicRecoveryMiddleware(opts.Logger))

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying router so callers can mount extra routes
func (s *Server) Router() *mux.Router {
	return s.router
}

// chain composes middleware left to right: the first wraps outermost.
func chain(wrappers ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(wrappers) - 1; i >= 0; i-- {
			next = wrappers[i](next)
		}
		return next
	}
}

// principalKey keys administrative rate limits on the authenticated
// principal, falling back to client address resolution for anonymous
// callers.
func principalKey(r *http.Request) string {
	if principal := middleware.GetPrincipal(r); principal != nil {
		return "principal:" + principal.ID.String()
	}
	return ""
}
