package service

import (
	"bytes"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
)

// envelopeCipher implements Cipher on top of an AEADManager.
//
// New envelopes use the configured algorithm. Opening honours the algorithm
// recorded in the envelope, so records sealed under a previous setting stay readable.
type envelopeCipher struct {
	manager   AEADManager
	algorithm cryptoDomain.Algorithm
}

// NewCipher creates a Cipher that seals with alg.
func NewCipher(manager AEADManager, alg cryptoDomain.Algorithm) Cipher {
	return &envelopeCipher{manager: manager, algorithm: alg}
}

// Seal encrypts plaintext and splits the authentication tag from the ciphertext.
// A key of the wrong length fails with ErrInvalidKeySize.
func (c *envelopeCipher) Seal(key, plaintext, aad []byte) (*cryptoDomain.Envelope, error) {
	aead, err := c.manager.CreateCipher(key, c.algorithm)
	if err != nil {
		if apperrors.Is(err, cryptoDomain.ErrInvalidKeySize) {
			return nil, err
		}
		return nil, apperrors.Wrap(cryptoDomain.ErrEncryptionFailed, err.Error())
	}

	sealed, nonce, err := aead.Encrypt(plaintext, aad)
	if err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrEncryptionFailed, err.Error())
	}
	if len(sealed) < cryptoDomain.TagSize {
		return nil, cryptoDomain.ErrEncryptionFailed
	}

	split := len(sealed) - cryptoDomain.TagSize
	return &cryptoDomain.Envelope{
		Algorithm:  c.algorithm,
		Ciphertext: sealed[:split:split],
		Nonce:      nonce,
		AuthTag:    bytes.Clone(sealed[split:]),
	}, nil
}

// Open rejoins ciphertext and tag and decrypts. Wrong key, wrong AAD, tampering
// and malformed envelopes all return ErrDecryptionFailed.
func (c *envelopeCipher) Open(key []byte, envelope *cryptoDomain.Envelope, aad []byte) ([]byte, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	if err := envelope.Validate(); err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	aead, err := c.manager.CreateCipher(key, envelope.Algorithm)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(envelope.Ciphertext)+len(envelope.AuthTag))
	sealed = append(sealed, envelope.Ciphertext...)
	sealed = append(sealed, envelope.AuthTag...)

	plaintext, err := aead.Decrypt(sealed, envelope.Nonce, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
