// Package domain defines the authenticated caller and authentication errors.
//
// Identity tokens are issued by an external identity provider and verified here
// with a shared HS256 secret. The subject claim carries the user id that scopes
// every vault operation.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinJWTSecretSize is the shortest accepted HS256 secret.
const MinJWTSecretSize = 32

// Identity is the caller proven by a verified bearer token.
type Identity struct {
	UserID    uuid.UUID
	ExpiresAt time.Time
}
