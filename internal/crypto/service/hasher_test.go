package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher()
	assert.IsType(t, &argon2Hasher{}, hasher)
}

func TestPasswordHasher_Hash(t *testing.T) {
	hasher := NewPasswordHasher()

	t.Run("Success_PHCFormat", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)
		assert.Contains(t, hash, "$argon2id$")
		assert.NotContains(t, hash, "correct horse")
	})

	t.Run("Success_FreshSaltPerCall", func(t *testing.T) {
		hash1, err := hasher.Hash("same-password")
		require.NoError(t, err)
		hash2, err := hasher.Hash("same-password")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})
}

func TestPasswordHasher_Verify(t *testing.T) {
	hasher := NewPasswordHasher()
	password := "Tr0ub4dor&3"

	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	t.Run("Success_OriginalPassword", func(t *testing.T) {
		assert.True(t, hasher.Verify(password, hash))
	})

	t.Run("Error_SingleCharacterMutations", func(t *testing.T) {
		for i := range password {
			mutated := []byte(password)
			mutated[i]++
			assert.False(t, hasher.Verify(string(mutated), hash), "mutation at index %d", i)
		}
		assert.False(t, hasher.Verify(password[:len(password)-1], hash))
		assert.False(t, hasher.Verify(password+"x", hash))
	})

	t.Run("Error_MalformedHashReturnsFalse", func(t *testing.T) {
		assert.NotPanics(t, func() {
			assert.False(t, hasher.Verify(password, ""))
			assert.False(t, hasher.Verify(password, "not-a-hash"))
			assert.False(t, hasher.Verify(password, "$argon2id$v=19$m=bogus"))
		})
	})
}
