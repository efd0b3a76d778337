package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
)

func TestGenerateRandomKey(t *testing.T) {
	k1, err := GenerateRandomKey()
	require.NoError(t, err)
	k2, err := GenerateRandomKey()
	require.NoError(t, err)

	assert.Len(t, k1, cryptoDomain.KeySize)
	assert.Len(t, k2, cryptoDomain.KeySize)
	assert.NotEqual(t, k1, k2)
}
