package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/orgkit/gatehouse/pkg/access"
)

var (
	// ErrTokenInvalid is returned for malformed, unsigned, or tampered tokens.
	// Parse detail is logged, never returned to clients.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("session token expired")
)

const (
	// cacheSize bounds the validated-token cache.
	cacheSize = 4096
	// cacheTTL caps how long a validated principal is served without
	// re-verifying the signature. Token expiry is still enforced on hits.
	cacheTTL = time.Minute
)

// SessionClaims are the platform's session token claims. The identity
// platform issues these; gatehouse only verifies and projects them.
type SessionClaims struct {
	Role       string `json:"role"`
	Branch     string `json:"branch"`
	Department string `json:"department"`
	jwt.RegisteredClaims
}

type cachedPrincipal struct {
	principal *access.Principal
	expiresAt time.Time
}

// SessionValidator verifies HS256 session tokens and produces principals.
// Validated tokens are cached briefly so hot admin sessions do not pay the
// parse-and-verify cost on every request.
type SessionValidator struct {
	secret []byte
	cache  *expirable.LRU[string, cachedPrincipal]
	now    func() time.Time
}

// NewSessionValidator creates a validator for the given signing secret
func NewSessionValidator(secret []byte) *SessionValidator {
	return &SessionValidator{
		secret: secret,
		cache:  expirable.NewLRU[string, cachedPrincipal](cacheSize, nil, cacheTTL),
		now:    time.Now,
	}
}

// Validate verifies the token and returns the principal it carries
func (v *SessionValidator) Validate(token string) (*access.Principal, error) {
	if cached, ok := v.cache.Get(token); ok {
		if v.now().Before(cached.expiresAt) {
			return cached.principal, nil
		}
		v.cache.Remove(token)
		return nil, ErrTokenExpired
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	principal, err := claims.principal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.ExpiresAt != nil {
		v.cache.Add(token, cachedPrincipal{
			principal: principal,
			expiresAt: claims.ExpiresAt.Time,
		})
	}

	return principal, nil
}

func (c *SessionClaims) principal() (*access.Principal, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject is not a valid user id: %v", err)
	}

	role := access.Role(c.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("unrecognized role %q", c.Role)
	}

	return &access.Principal{
		ID:           id,
		Role:         role,
		BranchID:     c.Branch,
		DepartmentID: c.Department,
	}, nil
}

// IssueToken signs a session token for the principal. The identity
// platform owns issuance in production; this is used by tests and local
// development tooling.
func IssueToken(secret []byte, principal *access.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Role:       string(principal.Role),
		Branch:     principal.BranchID,
		Department: principal.DepartmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}
