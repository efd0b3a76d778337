package domain

import (
	"github.com/allisson/passvault/internal/errors"
)

// Cryptographic error definitions.
//
// Decryption failures of any kind (wrong key, tampered ciphertext or tag, malformed
// envelope) collapse into ErrDecryptionFailed so callers cannot learn which part failed.
// Key-size and cipher setup problems are programming or configuration faults and wrap
// ErrInternal.
var (
	// ErrUnsupportedAlgorithm indicates an unknown AEAD algorithm was configured.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key that is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInternal, "invalid key size")

	// ErrEncryptionFailed indicates the cipher could not seal the plaintext.
	ErrEncryptionFailed = errors.Wrap(errors.ErrInternal, "encryption failed")

	// ErrDecryptionFailed indicates an envelope could not be opened with the given key.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrDecryptionFailed = errors.Wrap(errors.ErrUnprocessable, "decryption failed")

	// ErrMalformedEnvelope indicates a stored envelope has the wrong shape or encoding.
	// It is a DecryptionFailed error so it is reported the same way as a bad key.
	ErrMalformedEnvelope = errors.Wrap(ErrDecryptionFailed, "malformed envelope")

	// ErrInvalidSalt indicates a key-derivation salt shorter than MinSaltSize.
	ErrInvalidSalt = errors.Wrap(errors.ErrInvalidInput, "salt must be at least 8 bytes")

	// ErrInvalidPasswordLength indicates a generator length outside the allowed range.
	ErrInvalidPasswordLength = errors.Wrap(errors.ErrInvalidInput, "password length must be between 4 and 128")

	// ErrNoCharacterClass indicates every generator character class was disabled.
	ErrNoCharacterClass = errors.Wrap(errors.ErrInvalidInput, "at least one character class must be enabled")
)
