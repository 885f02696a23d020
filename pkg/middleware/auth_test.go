package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgkit/gatehouse/pkg/access"
	"github.com/orgkit/gatehouse/pkg/auth"
	"github.com/orgkit/gatehouse/pkg/httputil"
)

var testSecret = []byte("middleware-test-secret")

func issueTestToken(t *testing.T, principal *access.Principal, ttl time.Duration) string {
	t.Helper()
	token, err := auth.IssueToken(testSecret, principal, ttl)
	require.NoError(t, err)
	return token
}

func principalEcho(t *testing.T, captured **access.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetPrincipal(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	validator := auth.NewSessionValidator(testSecret)
	principal := &access.Principal{
		ID:           uuid.New(),
		Role:         access.RoleManager,
		BranchID:     "branch-east",
		DepartmentID: "dept-sales",
	}
	token := issueTestToken(t, principal, time.Hour)

	var seen *access.Principal
	handler := NewAuth(validator, false).Handler(principalEcho(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, principal.ID, seen.ID)
	assert.Equal(t, access.RoleManager, seen.Role)
	assert.Equal(t, "branch-east", seen.BranchID)
}

func TestAuth_MissingHeader(t *testing.T) {
	validator := auth.NewSessionValidator(testSecret)
	handler := NewAuth(validator, false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeErrorResponse(t, rec)
	assert.Equal(t, httputil.CodeUnauthenticated, body.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	validator := auth.NewSessionValidator(testSecret)
	handler := NewAuth(validator, false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	for _, header := range []string{"Bearer", "Basic dXNlcjpwYXNz", "bearer token"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	validator := auth.NewSessionValidator(testSecret)
	principal := &access.Principal{ID: uuid.New(), Role: access.RoleEmployee}
	token := issueTestToken(t, principal, -time.Minute)

	handler := NewAuth(validator, false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeErrorResponse(t, rec)
	assert.Equal(t, "session expired", body.Message)
}

func TestAuth_OptionalMode(t *testing.T) {
	validator := auth.NewSessionValidator(testSecret)

	var seen *access.Principal
	handler := NewAuth(validator, true).Handler(principalEcho(t, &seen))

	// No header: request passes through anonymously.
	req := httptest.NewRequest(http.MethodPost, "/forgot-password", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, seen)

	// A present but invalid token is still rejected.
	req = httptest.NewRequest(http.MethodPost, "/forgot-password", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetPrincipal_NoPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetPrincipal(req))
}
