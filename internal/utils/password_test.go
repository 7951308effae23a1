package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hash)

	require.True(t, VerifyPassword(hash, "s3cret"))
	require.False(t, VerifyPassword(hash, "wrong"))
}

func TestHashPasswordClampsBadCost(t *testing.T) {
	// A zero or absurd BCRYPT_COST must not break registration.
	for _, cost := range []int{0, -1, 99} {
		hash, err := HashPassword("s3cret", cost)
		require.NoError(t, err, "cost %d", cost)
		require.True(t, VerifyPassword(hash, "s3cret"))
	}
}
