package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "staff", "s3cret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "staff", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestAccessTokenIDsAreUnique(t *testing.T) {
	a, err := GenerateAccessToken(1, "student", "k", time.Hour)
	require.NoError(t, err)
	b, err := GenerateAccessToken(1, "student", "k", time.Hour)
	require.NoError(t, err)

	ca, err := ValidateAccessToken(a, "k")
	require.NoError(t, err)
	cb, err := ValidateAccessToken(b, "k")
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	expired, err := GenerateAccessToken(1, "admin", "k", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateAccessToken(expired, "k")
	assert.ErrorIs(t, err, ErrTokenExpired)

	good, err := GenerateAccessToken(1, "admin", "k", time.Hour)
	require.NoError(t, err)
	_, err = ValidateAccessToken(good, "other")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ValidateAccessToken("not-a-token", "k")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
