package middleware

import (
	"net/http"

	"github.com/orgkit/gatehouse/pkg/access"
	"github.com/orgkit/gatehouse/pkg/audit"
	"github.com/orgkit/gatehouse/pkg/httputil"
	"github.com/orgkit/gatehouse/pkg/observability"
)

// AccessGuard enforces role, branch, and department requirements on routes.
type AccessGuard struct {
	engine  *access.Engine
	metrics *observability.Metrics
	audit   audit.Logger
}

// NewAccessGuard creates access-control middleware. Metrics and audit
// logger may be nil.
func NewAccessGuard(engine *access.Engine, metrics *observability.Metrics, auditLogger audit.Logger) *AccessGuard {
	return &AccessGuard{
		engine:  engine,
		metrics: metrics,
		audit:   auditLogger,
	}
}

// Require wraps a handler with an authorization requirement. The wrapped
// handler runs only when the authenticated principal satisfies it.
func (g *AccessGuard) Require(requirement access.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r)
			decision := g.engine.Evaluate(principal, requirement)

			if g.metrics != nil {
				g.metrics.AccessDecisionsTotal.WithLabelValues(string(decision.Outcome)).Inc()
			}

			if decision.Allowed() {
				next.ServeHTTP(w, r)
				return
			}

			g.recordDenial(r, principal, decision)
			writeDecision(w, decision)
		})
	}
}

func (g *AccessGuard) recordDenial(r *http.Request, principal *access.Principal, decision access.Decision) {
	if g.audit == nil {
		return
	}
	event := audit.NewEvent(audit.EventTypeAccessDenied, audit.EventStatusDenied).
		WithResource(r.URL.Path).
		WithMessage(decision.Reason)
	if principal != nil {
		event = event.WithActor(principal.ID)
	}
	_ = g.audit.Log(r.Context(), event)
}

func writeDecision(w http.ResponseWriter, decision access.Decision) {
	switch decision.Outcome {
	case access.DenyUnauthenticated:
		httputil.WriteUnauthenticated(w, decision.Reason)
	case access.DenyRole:
		httputil.WriteForbidden(w, httputil.CodeForbiddenRole, decision.Reason)
	case access.DenyBranch:
		httputil.WriteForbidden(w, httputil.CodeForbiddenBranch, decision.Reason)
	case access.DenyDepartment:
		httputil.WriteForbidden(w, httputil.CodeForbiddenDepartment, decision.Reason)
	default:
		httputil.WriteForbidden(w, httputil.CodeForbiddenRole, decision.Reason)
	}
}
