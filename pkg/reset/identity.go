package reset

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// argon2id parameters for stored credential hashes.
const (
	argonMemoryKB    = 64 * 1024
	argonTime        = 2
	argonParallelism = 2
	argonSaltLength  = 16
	argonKeyLength   = 32
)

// SQLIdentityProvider rotates credentials directly in the platform user
// store. The replacement credential is hashed with argon2id and stored in
// PHC string format; the plaintext never touches the database.
type SQLIdentityProvider struct {
	db *sql.DB
}

// NewSQLIdentityProvider creates a provider over an open database handle
func NewSQLIdentityProvider(db *sql.DB) *SQLIdentityProvider {
	return &SQLIdentityProvider{db: db}
}

// UpdateCredential hashes and stores the replacement credential for the
// given user. A missing or inactive user is a provider failure: the
// caller keeps the request pending and may retry.
func (p *SQLIdentityProvider) UpdateCredential(ctx context.Context, userID uuid.UUID, newCredential string) error {
	hash, err := hashCredential(newCredential)
	if err != nil {
		return fmt.Errorf("credential hashing: %w", err)
	}

	result, err := p.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = $2
		WHERE id = $3 AND is_active = true
	`, hash, time.Now().UTC(), userID.String())
	if err != nil {
		return fmt.Errorf("credential update: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("credential update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no active user with id %s", userID)
	}
	return nil
}

// hashCredential produces an argon2id PHC string
func hashCredential(credential string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(credential), salt, argonTime, argonMemoryKB, argonParallelism, argonKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemoryKB, argonTime, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}
