package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	for _, password := range []string{"pw", "password123", "  spaced  ", "ünïcødé", "x"} {
		t.Run(password, func(t *testing.T) {
			hash, err := hasher.Hash(password)
			require.NoError(t, err)

			assert.NotEqual(t, password, hash)
			assert.True(t, hasher.Verify(password, hash))
			assert.False(t, hasher.Verify(password+"wrong", hash))
		})
	}
}

func TestBcryptHasher_SaltsEachCall(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("pw")
	require.NoError(t, err)

	second, err := hasher.Hash("pw")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNewBcryptHasher_FallsBackToDefaultCost(t *testing.T) {
	hasher := NewBcryptHasher(99)

	hash, err := hasher.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}
