package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgkit/gatehouse/pkg/access"
)

var testSecret = []byte("test-session-secret")

func testPrincipal() *access.Principal {
	return &access.Principal{
		ID:           uuid.New(),
		Role:         access.RoleAdmin,
		BranchID:     "branch-east",
		DepartmentID: "dept-it",
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	v := NewSessionValidator(testSecret)
	want := testPrincipal()

	token, err := IssueToken(testSecret, want, time.Hour)
	require.NoError(t, err)

	got, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Role, got.Role)
	assert.Equal(t, want.BranchID, got.BranchID)
	assert.Equal(t, want.DepartmentID, got.DepartmentID)
}

func TestValidate_WrongSecret(t *testing.T) {
	v := NewSessionValidator(testSecret)

	token, err := IssueToken([]byte("some-other-secret"), testPrincipal(), time.Hour)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_Expired(t *testing.T) {
	v := NewSessionValidator(testSecret)

	token, err := IssueToken(testSecret, testPrincipal(), -time.Minute)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_Garbage(t *testing.T) {
	v := NewSessionValidator(testSecret)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := v.Validate(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}

func TestValidate_UnrecognizedRole(t *testing.T) {
	v := NewSessionValidator(testSecret)
	p := testPrincipal()
	p.Role = access.Role("superuser")

	token, err := IssueToken(testSecret, p, time.Hour)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_CachesValidatedTokens(t *testing.T) {
	v := NewSessionValidator(testSecret)

	token, err := IssueToken(testSecret, testPrincipal(), time.Hour)
	require.NoError(t, err)

	first, err := v.Validate(token)
	require.NoError(t, err)

	// Second call is served from cache and returns the same principal.
	second, err := v.Validate(token)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestValidate_CacheHitStillEnforcesExpiry(t *testing.T) {
	v := NewSessionValidator(testSecret)

	token, err := IssueToken(testSecret, testPrincipal(), 30*time.Second)
	require.NoError(t, err)

	_, err = v.Validate(token)
	require.NoError(t, err)

	// Advance the validator's clock past the token expiry; the cache
	// entry is still live but the token must now be rejected.
	v.now = func() time.Time { return time.Now().Add(time.Minute) }

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
