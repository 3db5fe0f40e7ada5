package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "homefolio"})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(AccessTokenInput{
		UserID:    "user-1",
		SessionID: "session-1",
		Role:      "admin",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "session-1", claims.SessionID)
	require.Equal(t, "admin", claims.Role)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	issuer, err := NewJWTService(JWTConfig{
		Secret:         "secret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return issued },
	})
	require.NoError(t, err)

	token, err := issuer.GenerateAccessToken(AccessTokenInput{UserID: "user-1"})
	require.NoError(t, err)

	validator, err := NewJWTService(JWTConfig{Secret: "secret"})
	require.NoError(t, err)

	_, err = validator.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTRejectsWrongSecretAndIssuer(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "homefolio"})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "user-1"})
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: "different", Issuer: "homefolio"})
	require.NoError(t, err)
	_, err = other.ValidateAccessToken(token)
	require.Error(t, err)

	strict, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "someone-else"})
	require.NoError(t, err)
	_, err = strict.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
}
