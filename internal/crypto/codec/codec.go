// Package codec converts encrypted envelopes to and from their textual storage form.
package codec

import (
	"encoding/base64"
	"encoding/hex"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
)

// Encoding names a binary-to-text encoding for envelope fields.
type Encoding string

const (
	Base64 Encoding = "base64"
	Hex    Encoding = "hex"
)

// ErrUnsupportedEncoding indicates an unknown envelope encoding was configured.
var ErrUnsupportedEncoding = apperrors.Wrap(apperrors.ErrInvalidInput, "unsupported envelope encoding")

// Codec serializes envelopes for the record store.
type Codec interface {
	// Encode validates the envelope shape and renders every field as text.
	Encode(env *cryptoDomain.Envelope) (cryptoDomain.EncodedEnvelope, error)

	// Decode parses stored fields. Any structural problem is ErrMalformedEnvelope.
	Decode(enc cryptoDomain.EncodedEnvelope) (*cryptoDomain.Envelope, error)
}

type textEncoding interface {
	EncodeToString(src []byte) string
	DecodeString(s string) ([]byte, error)
}

type hexEncoding struct{}

func (hexEncoding) EncodeToString(src []byte) string     { return hex.EncodeToString(src) }
func (hexEncoding) DecodeString(s string) ([]byte, error) { return hex.DecodeString(s) }

type envelopeCodec struct {
	primary  textEncoding
	fallback textEncoding
}

// New returns a Codec that writes with enc and reads either encoding, so rows
// written before an encoding change stay readable.
func New(enc Encoding) (Codec, error) {
	switch enc {
	case Base64, "":
		return &envelopeCodec{primary: base64.StdEncoding, fallback: hexEncoding{}}, nil
	case Hex:
		return &envelopeCodec{primary: hexEncoding{}, fallback: base64.StdEncoding}, nil
	default:
		return nil, ErrUnsupportedEncoding
	}
}

func (c *envelopeCodec) Encode(env *cryptoDomain.Envelope) (cryptoDomain.EncodedEnvelope, error) {
	if err := env.Validate(); err != nil {
		return cryptoDomain.EncodedEnvelope{}, apperrors.Wrap(apperrors.ErrInternal, "refusing to encode malformed envelope")
	}
	return cryptoDomain.EncodedEnvelope{
		Algorithm:  string(env.Algorithm),
		Ciphertext: c.primary.EncodeToString(env.Ciphertext),
		Nonce:      c.primary.EncodeToString(env.Nonce),
		AuthTag:    c.primary.EncodeToString(env.AuthTag),
	}, nil
}

func (c *envelopeCodec) Decode(enc cryptoDomain.EncodedEnvelope) (*cryptoDomain.Envelope, error) {
	alg := cryptoDomain.Algorithm(enc.Algorithm)
	if enc.Algorithm == "" {
		alg = cryptoDomain.AESGCM
	}
	if !alg.Valid() {
		return nil, cryptoDomain.ErrMalformedEnvelope
	}

	if env, ok := decodeWith(c.primary, alg, enc); ok {
		return env, nil
	}
	if env, ok := decodeWith(c.fallback, alg, enc); ok {
		return env, nil
	}
	return nil, cryptoDomain.ErrMalformedEnvelope
}

func decodeWith(te textEncoding, alg cryptoDomain.Algorithm, enc cryptoDomain.EncodedEnvelope) (*cryptoDomain.Envelope, bool) {
	ciphertext, err := te.DecodeString(enc.Ciphertext)
	if err != nil {
		return nil, false
	}
	nonce, err := te.DecodeString(enc.Nonce)
	if err != nil {
		return nil, false
	}
	tag, err := te.DecodeString(enc.AuthTag)
	if err != nil {
		return nil, false
	}

	env := &cryptoDomain.Envelope{
		Algorithm:  alg,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		AuthTag:    tag,
	}
	if env.Validate() != nil {
		return nil, false
	}
	return env, true
}
