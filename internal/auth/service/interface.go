// Package service provides identity token verification and signing.
//
// Tokens are HS256 JWTs whose subject is the user id. Verification enforces the
// signing method, the issuer and the presence of an expiry.
package service

import (
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/passvault/internal/auth/domain"
)

// TokenVerifier validates bearer tokens and returns the caller they prove.
type TokenVerifier interface {
	// Verify returns ErrInvalidToken for any token that fails validation.
	Verify(token string) (*authDomain.Identity, error)
}

// TokenSigner issues identity tokens. Production tokens come from the external
// identity provider; the signer serves local tooling.
type TokenSigner interface {
	Sign(userID uuid.UUID, ttl time.Duration) (string, error)
}
