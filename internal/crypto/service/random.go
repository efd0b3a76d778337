package service

import (
	"crypto/rand"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
)

// GenerateRandomKey returns a cryptographically secure random 256-bit key.
func GenerateRandomKey() ([]byte, error) {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "failed to generate random key")
	}
	return key, nil
}
