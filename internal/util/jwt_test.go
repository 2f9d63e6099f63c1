package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, "ops", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.Equal(t, OperatorScope, claims.Scope)
}

func TestValidateTokenRejects(t *testing.T) {
	expired, err := GenerateToken(testSecret, "ops", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(testSecret, expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	good, err := GenerateToken(testSecret, "ops", time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("another-secret-another-secret-xx", good)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken(testSecret, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken("", good)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestValidateTokenRequiresScope(t *testing.T) {
	claims := &Claims{
		Operator: "ops",
		Scope:    "read",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateToken(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, err := GenerateToken("", "ops", time.Minute)
	assert.ErrorIs(t, err, ErrNoSecret)
}
