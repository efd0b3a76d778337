package service

import (
	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
)

type aeadConstructor func(key []byte) (AEAD, error)

var aeadConstructors = map[cryptoDomain.Algorithm]aeadConstructor{
	cryptoDomain.AESGCM:   NewAESGCM,
	cryptoDomain.ChaCha20: NewChaCha20Poly1305,
}

// AEADManagerService builds per-key AEAD instances for the algorithms an
// envelope may name.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns an AEAD for alg keyed with key. The algorithm is checked
// before the key so an envelope naming an unknown algorithm reports that first.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	newAEAD, ok := aeadConstructors[alg]
	if !ok {
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	return newAEAD(key)
}
