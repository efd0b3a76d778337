package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	t.Run("single buffer", func(t *testing.T) {
		b := []byte("master-password")
		Zero(b)
		assert.Equal(t, make([]byte, len("master-password")), b)
	})

	t.Run("several buffers", func(t *testing.T) {
		key := bytes.Repeat([]byte{0xAB}, KeySize)
		plaintext := []byte(`{"password":"hunter2"}`)
		Zero(key, plaintext)
		assert.Equal(t, make([]byte, KeySize), key)
		assert.Equal(t, make([]byte, len(plaintext)), plaintext)
	})

	t.Run("nil and empty", func(t *testing.T) {
		assert.NotPanics(t, func() { Zero(nil, []byte{}) })
		assert.NotPanics(t, func() { Zero() })
	})

	t.Run("sub-slice leaves the rest intact", func(t *testing.T) {
		b := []byte{1, 2, 3, 4}
		Zero(b[:2])
		assert.Equal(t, []byte{0, 0, 3, 4}, b)
	})
}
