package service

import (
	"golang.org/x/crypto/argon2"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
)

type argon2KeyDeriver struct {
	params cryptoDomain.KDFParams
}

// NewKeyDeriver creates an Argon2id KeyDeriver. Zero-valued params fall back to
// DefaultKDFParams so every party deriving with the defaults gets identical keys.
func NewKeyDeriver(params cryptoDomain.KDFParams) KeyDeriver {
	def := cryptoDomain.DefaultKDFParams()
	if params.Time == 0 {
		params.Time = def.Time
	}
	if params.MemoryKiB == 0 {
		params.MemoryKiB = def.MemoryKiB
	}
	if params.Threads == 0 {
		params.Threads = def.Threads
	}
	return &argon2KeyDeriver{params: params}
}

// DeriveKey derives a 32-byte key. The salt must be at least MinSaltSize bytes.
func (d *argon2KeyDeriver) DeriveKey(password, salt []byte) ([]byte, error) {
	if len(salt) < cryptoDomain.MinSaltSize {
		return nil, cryptoDomain.ErrInvalidSalt
	}
	return argon2.IDKey(
		password,
		salt,
		d.params.Time,
		d.params.MemoryKiB,
		d.params.Threads,
		cryptoDomain.KeySize,
	), nil
}
