package ports

import (
	"time"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

// PasswordHasher derives and checks salted one-way password hashes.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify returns false on a mismatch; an error only for a malformed hash.
	Verify(plain, hash string) (bool, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(user *domain.User) (token string, expiresAt time.Time, err error)
}

// TokenVerifier checks and decodes access tokens.
type TokenVerifier interface {
	Verify(token string) (*domain.TokenClaims, error)
}
