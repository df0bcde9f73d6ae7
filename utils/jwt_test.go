package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(42, "staff", 7)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "staff", claims.Role)
	assert.EqualValues(t, 7, claims.RestaurantID)
}

func TestSetJWTSecretChangesSigningKey(t *testing.T) {
	old := jwtSecret
	t.Cleanup(func() { jwtSecret = old })

	SetJWTSecret("first-key")
	token, err := GenerateToken(1, "staff", 2)
	require.NoError(t, err)
	_, err = ParseToken(token)
	require.NoError(t, err)

	SetJWTSecret("second-key")
	_, err = ParseToken(token)
	assert.Error(t, err, "tokens signed with the old key must be rejected")

	// An empty value keeps the current key.
	SetJWTSecret("")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestBlacklistedTokenIsRejected(t *testing.T) {
	token, err := GenerateToken(1, "customer", 0)
	require.NoError(t, err)

	_, err = ParseToken(token)
	require.NoError(t, err)

	BlacklistToken(token)
	assert.True(t, IsTokenBlacklisted(token))

	_, err = ParseToken(token)
	assert.Error(t, err)
}
