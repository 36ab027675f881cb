package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	password := "mySecretPassword123"
	hash, err := HashPassword(password)

	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEqual(t, password, hash)
}

func TestCheckPasswordHash(t *testing.T) {
	password := "mySecretPassword123"
	hash, err := HashPassword(password)
	require.NoError(t, err)

	match := CheckPasswordHash(password, hash)
	require.True(t, match, "Password should match the hash")

	wrongPassword := "wrongPassword"
	match = CheckPasswordHash(wrongPassword, hash)
	require.False(t, match, "Wrong password should not match the hash")
}

func TestNewSessionToken(t *testing.T) {
	token, err := NewSessionToken()
	require.NoError(t, err)
	require.Len(t, token, sessionTokenLength)

	// Kolejny token musi być inny
	other, err := NewSessionToken()
	require.NoError(t, err)
	require.NotEqual(t, token, other)

	for _, r := range token {
		valid := r == '_' || r == '-' ||
			(r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z')
		require.True(t, valid, "Token must be URL/header safe, got %q", r)
	}
}

func TestIsReservedUsername(t *testing.T) {
	require.True(t, IsReservedUsername("csjjpfp"))
	require.True(t, IsReservedUsername("CSJJPFP"))
	require.True(t, IsReservedUsername("CsJjPfP"))
	require.False(t, IsReservedUsername("csjjpfp2"))
	require.False(t, IsReservedUsername("regular_user"))
}
