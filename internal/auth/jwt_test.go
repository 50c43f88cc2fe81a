package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/auth"
	"helix/internal/config"
	"helix/internal/domain"
)

func newJWT() *auth.JWT {
	return auth.NewJWT(&config.JWTConfig{Secret: "test-secret", Issuer: "helix"})
}

func TestJWT_IssueAndValidate(t *testing.T) {
	j := newJWT()
	token, err := j.Issue("op-7", "Dana", "dana@example.com", "operator", time.Hour)
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "op-7", claims.OperatorID())
	assert.Equal(t, "Dana", claims.Name)
	assert.Equal(t, "dana@example.com", claims.Email)
	assert.Equal(t, "operator", claims.Role)
}

func TestJWT_Expired(t *testing.T) {
	j := newJWT()
	token, err := j.Issue("op-7", "", "", "", -time.Minute)
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWT_WrongSecret(t *testing.T) {
	other := auth.NewJWT(&config.JWTConfig{Secret: "other", Issuer: "helix"})
	token, err := other.Issue("op-7", "", "", "", time.Hour)
	require.NoError(t, err)

	_, err = newJWT().ValidateToken(token)
	assert.Error(t, err)
}

func TestJWT_WrongIssuer(t *testing.T) {
	other := auth.NewJWT(&config.JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
	token, err := other.Issue("op-7", "", "", "", time.Hour)
	require.NoError(t, err)

	_, err = newJWT().ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestJWT_WrongAudience(t *testing.T) {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "op-7",
		Issuer:    "helix",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Audience:  jwt.ClaimStrings{"refresh"},
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newJWT().ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
