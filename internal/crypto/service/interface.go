// Package service provides the cryptographic primitives used by the vault:
// AEAD envelope sealing, Argon2id password hashing, Argon2id key derivation,
// random key generation and password generation.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext (tag appended) and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext (tag appended) using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// Cipher seals plaintext into envelopes and opens them again.
type Cipher interface {
	// Seal encrypts plaintext under key with a fresh random nonce.
	Seal(key, plaintext, aad []byte) (*cryptoDomain.Envelope, error)

	// Open authenticates and decrypts an envelope. Every failure is ErrDecryptionFailed.
	Open(key []byte, envelope *cryptoDomain.Envelope, aad []byte) ([]byte, error)
}

// PasswordHasher hashes and verifies passwords with a memory-hard algorithm.
type PasswordHasher interface {
	// Hash returns an encoded hash with an embedded random salt and cost parameters.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A malformed hash yields false.
	Verify(password, hash string) bool
}

// KeyDeriver turns a password and salt into a fixed-size symmetric key.
type KeyDeriver interface {
	// DeriveKey is deterministic for identical inputs and returns KeySize bytes.
	DeriveKey(password, salt []byte) ([]byte, error)
}

// PasswordGenerator produces random passwords from selected character classes.
type PasswordGenerator interface {
	Generate(opts cryptoDomain.PasswordOptions) (string, error)
}

// KMSKeeper is the subset of *secrets.Keeper used to wrap and unwrap server secrets.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService opens KMS keepers from provider URIs.
type KMSService interface {
	// OpenKeeper opens a keeper for the provider identified by keyURI.
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}
