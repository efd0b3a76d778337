package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// argon2Hasher implements PasswordHasher using Argon2id in PHC string format.
type argon2Hasher struct {
	hasher *pwdhash.PasswordHasher
}

// NewPasswordHasher creates a PasswordHasher using the Moderate Argon2id policy.
// Salt generation and parameter encoding are handled by go-pwdhash, so two
// hashes of the same password differ.
func NewPasswordHasher() PasswordHasher {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &argon2Hasher{hasher: hasher}
}

// Hash hashes a password with a fresh random salt.
func (h *argon2Hasher) Hash(password string) (string, error) {
	hash, err := h.hasher.Hash([]byte(password))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hash, nil
}

// Verify performs a constant-time comparison. Malformed hashes return false.
func (h *argon2Hasher) Verify(password, hash string) bool {
	ok, err := h.hasher.Verify([]byte(password), hash)
	if err != nil {
		return false
	}
	return ok
}
