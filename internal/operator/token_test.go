package operator

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates operator token issue and verification.
// Scope: Unit Test
// Security: Authentication Bypass (CWE-287)
// Expected: Own tokens verify; expired, foreign-secret, wrong-role and alg-none tokens are rejected.
// Test Case ID: OPR-01
func TestTokens(t *testing.T) {
	tokens := NewTokens("s3cret-for-tests")

	raw, err := tokens.Issue("ops@example.com", time.Hour)
	require.NoError(t, err)
	claims, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)

	expired, err := tokens.Issue("ops@example.com", -time.Minute)
	require.NoError(t, err)
	_, err = tokens.Verify(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	foreign, err := NewTokens("another-secret").Issue("ops@example.com", time.Hour)
	require.NoError(t, err)
	_, err = tokens.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	memberToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "member",
	}).SignedString([]byte("s3cret-for-tests"))
	require.NoError(t, err)
	_, err = tokens.Verify(memberToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: roleOperator}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Disabled(t *testing.T) {
	tokens := NewTokens("")
	assert.False(t, tokens.Enabled())
	_, err := tokens.Issue("x", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = tokens.Verify("abc")
	assert.ErrorIs(t, err, ErrNoSecret)
}
