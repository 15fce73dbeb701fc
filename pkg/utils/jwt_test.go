package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "Bearer abc", BearerToken("abc"))
	assert.Equal(t, "Bearer abc", BearerToken("Bearer abc"))
	assert.Equal(t, "", BearerToken("  "))
}

func TestParseClaims(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u-42",
		Name:   "Alice",
	})
	signed, err := token.SignedString([]byte("any-secret-the-client-never-checks"))
	require.NoError(t, err)

	claims, err := ParseClaims("Bearer " + signed)
	require.NoError(t, err)
	assert.Equal(t, "u-42", claims.CurrentUser())
	assert.Equal(t, "Alice", claims.Name)

	t.Run("Falls back to subject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-1"},
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		claims, err := ParseClaims(signed)
		require.NoError(t, err)
		assert.Equal(t, "sub-1", claims.CurrentUser())
	})

	t.Run("Garbage token", func(t *testing.T) {
		_, err := ParseClaims("not-a-token")
		assert.Error(t, err)
	})
}
