package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/orgkit/gatehouse/pkg/access"
	"github.com/orgkit/gatehouse/pkg/auth"
	"github.com/orgkit/gatehouse/pkg/contextkeys"
	"github.com/orgkit/gatehouse/pkg/httputil"
)

// Auth provides session authentication middleware
type Auth struct {
	validator *auth.SessionValidator
	optional  bool // If true, allow requests without a session
}

// NewAuth creates session authentication middleware
func NewAuth(validator *auth.SessionValidator, optional bool) *Auth {
	return &Auth{
		validator: validator,
		optional:  optional,
	}
}

// Handler wraps an HTTP handler with session authentication
func (m *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthenticated(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthenticated(w, "invalid authorization header format")
			return
		}

		principal, err := m.validator.Validate(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				httputil.WriteUnauthenticated(w, "session expired")
				return
			}
			httputil.WriteUnauthenticated(w, "invalid session")
			return
		}

		ctx := context.WithValue(r.Context(), contextkeys.PrincipalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipal extracts the authenticated principal from the request,
// or nil for anonymous requests.
func GetPrincipal(r *http.Request) *access.Principal {
	value := r.Context().Value(contextkeys.PrincipalKey)
	if value == nil {
		return nil
	}
	principal, ok := value.(*access.Principal)
	if !ok {
		return nil
	}
	return principal
}
