package domain

import (
	"github.com/allisson/passvault/internal/errors"
)

// Authentication errors.
var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.Wrap(errors.ErrUnauthorized, "missing bearer token")

	// ErrInvalidToken indicates a token with a bad signature, issuer, subject or
	// expiry. The cause is not reported.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid bearer token")

	// ErrInvalidJWTSecret indicates a signing secret shorter than MinJWTSecretSize.
	ErrInvalidJWTSecret = errors.Wrap(errors.ErrInternal, "jwt secret must be at least 32 bytes")
)
