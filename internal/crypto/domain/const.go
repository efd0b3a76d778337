package domain

// Algorithm identifies the AEAD cipher that produced an envelope.
//
// Both algorithms use a 256-bit key, a 96-bit nonce and a 128-bit authentication
// tag, so envelopes produced by either one share the same shape.
type Algorithm string

const (
	// AESGCM is AES-256 in Galois/Counter Mode. Preferred on CPUs with AES-NI.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305. Preferred where AES hardware acceleration is missing.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// KeySize is the size in bytes of every vault encryption key.
	KeySize = 32
	// NonceSize is the size in bytes of the per-encryption nonce.
	NonceSize = 12
	// TagSize is the size in bytes of the authentication tag.
	TagSize = 16
	// MinSaltSize is the smallest salt accepted by key derivation.
	MinSaltSize = 8
)

// Valid reports whether the algorithm is supported.
func (a Algorithm) Valid() bool {
	return a == AESGCM || a == ChaCha20
}

// ParseAlgorithm converts a configuration string into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	alg := Algorithm(s)
	if !alg.Valid() {
		return "", ErrUnsupportedAlgorithm
	}
	return alg, nil
}
