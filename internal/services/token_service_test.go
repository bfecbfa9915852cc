package services

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ienerzy/auth-service/internal/config"
	"github.com/ienerzy/auth-service/internal/models"
)

func newTestTokenService(t *testing.T, tokenExpiry, refreshExpiry time.Duration) TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return NewTokenService(&config.Config{
		RSAPrivateKey:      key,
		RSAPublicKey:       &key.PublicKey,
		TokenExpiry:        tokenExpiry,
		RefreshTokenExpiry: refreshExpiry,
	})
}

func testIdentity() models.Identity {
	return models.Identity{
		ID:    uuid.New(),
		Name:  "Ravi Kumar",
		Phone: "9999999999",
		Role:  models.RoleAdmin,
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t, 24*time.Hour, 7*24*time.Hour)
	identity := testIdentity()

	tokenStr, err := svc.GenerateAccessToken(identity)
	require.NoError(t, err)

	claims, err := svc.ParseAccessToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, claims.UserID)
	assert.Equal(t, identity.Phone, claims.Phone)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.False(t, claims.IsConsumer)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt, time.Minute)
}

func TestAccessToken_ExpiredSurfacesAsTokenExpired(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute, 7*24*time.Hour)

	tokenStr, err := svc.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(tokenStr)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAccessToken_WrongKeyRejected(t *testing.T) {
	signer := newTestTokenService(t, 24*time.Hour, 7*24*time.Hour)
	verifier := newTestTokenService(t, 24*time.Hour, 7*24*time.Hour)

	tokenStr, err := signer.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(tokenStr)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t, 24*time.Hour, 7*24*time.Hour)
	userID := uuid.New()

	tokenStr, err := svc.GenerateRefreshToken(userID)
	require.NoError(t, err)

	parsed, err := svc.ParseRefreshToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

// An access token must not pass where a refresh token is expected; only
// tokens carrying type=refresh rotate sessions.
func TestRefreshParse_RejectsAccessToken(t *testing.T) {
	svc := newTestTokenService(t, 24*time.Hour, 7*24*time.Hour)

	accessStr, err := svc.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = svc.ParseRefreshToken(accessStr)
	assert.Error(t, err)
}

func TestTokens_AreUniquePerIssue(t *testing.T) {
	svc := newTestTokenService(t, 24*time.Hour, 7*24*time.Hour)
	identity := testIdentity()

	first, err := svc.GenerateAccessToken(identity)
	require.NoError(t, err)
	second, err := svc.GenerateAccessToken(identity)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
