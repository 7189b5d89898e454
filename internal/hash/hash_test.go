package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	h, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NotEmpty(t, h)
	require.NotEqual(t, "secret1", h)

	require.True(t, CheckPassword(h, "secret1"))
	require.False(t, CheckPassword(h, "secret2"))
	require.False(t, CheckPassword(h, ""))
}

func TestHashIsSalted(t *testing.T) {
	h1, err := HashPassword("same-password")
	require.NoError(t, err)
	h2, err := HashPassword("same-password")
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
	require.True(t, CheckPassword(h1, "same-password"))
	require.True(t, CheckPassword(h2, "same-password"))
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	require.False(t, CheckPassword("not-a-bcrypt-hash", "whatever"))
}
