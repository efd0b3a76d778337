package domain

// Envelope is the encrypted-at-rest form of a record's secret payload.
//
// Ciphertext excludes the authentication tag, which is kept separately in AuthTag.
// Any change to Ciphertext, Nonce, AuthTag or the associated data used at seal time
// makes Open fail with ErrDecryptionFailed.
type Envelope struct {
	Algorithm  Algorithm
	Ciphertext []byte
	Nonce      []byte
	AuthTag    []byte
}

// Validate checks the structural shape of the envelope without touching any key.
func (e *Envelope) Validate() error {
	if e == nil {
		return ErrMalformedEnvelope
	}
	if !e.Algorithm.Valid() {
		return ErrMalformedEnvelope
	}
	if len(e.Nonce) != NonceSize || len(e.AuthTag) != TagSize {
		return ErrMalformedEnvelope
	}
	return nil
}

// EncodedEnvelope is the textual storage representation of an Envelope.
// Ciphertext may be empty when the sealed plaintext was empty.
type EncodedEnvelope struct {
	Algorithm  string
	Ciphertext string
	Nonce      string
	AuthTag    string
}

// IsZero reports whether no envelope fields are set.
func (e EncodedEnvelope) IsZero() bool {
	return e.Nonce == "" && e.AuthTag == "" && e.Ciphertext == ""
}
