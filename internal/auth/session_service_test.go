package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/database/testutil"
	"github.com/chidiebere-dev/homefolio/internal/models"
)

func newSessionService(t *testing.T, cfg SessionConfig) (*SessionService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtService, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "homefolio"})
	require.NoError(t, err)

	svc, err := NewSessionService(db, jwtService, cfg)
	require.NoError(t, err)
	return svc, db
}

func seedSessionUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	user := &models.User{
		Name:     "Session User",
		Email:    "session@example.com",
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateAndRefreshSession(t *testing.T) {
	svc, db := newSessionService(t, SessionConfig{})
	user := seedSessionUser(t, db, models.RoleAdmin)

	pair, session, err := svc.CreateSession(user, SessionMetadata{IPAddress: "127.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, user.ID, session.UserID)

	// Access token carries the role for middleware authorisation.
	jwtService, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "homefolio"})
	require.NoError(t, err)
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, claims.Role)
	require.Equal(t, session.ID, claims.SessionID)

	rotated, refreshed, err := svc.RefreshSession(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, session.ID, refreshed.ID)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The previous refresh token is dead after rotation.
	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRevokedSessionCannotRefresh(t *testing.T) {
	svc, db := newSessionService(t, SessionConfig{})
	user := seedSessionUser(t, db, models.RoleUser)

	pair, session, err := svc.CreateSession(user, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(session.ID))
	require.ErrorIs(t, svc.RevokeSession(session.ID), ErrSessionNotFound)

	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestExpiredSessionCannotRefresh(t *testing.T) {
	current := time.Now()
	svc, db := newSessionService(t, SessionConfig{
		RefreshTokenTTL: time.Minute,
		Clock:           func() time.Time { return current },
	})
	user := seedSessionUser(t, db, models.RoleUser)

	pair, _, err := svc.CreateSession(user, SessionMetadata{})
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestRevokeUserSessionsAndCleanup(t *testing.T) {
	current := time.Now()
	svc, db := newSessionService(t, SessionConfig{
		RefreshTokenTTL: time.Minute,
		Clock:           func() time.Time { return current },
	})
	user := seedSessionUser(t, db, models.RoleUser)

	_, _, err := svc.CreateSession(user, SessionMetadata{})
	require.NoError(t, err)
	_, _, err = svc.CreateSession(user, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeUserSessions(user.ID))

	var revoked int64
	require.NoError(t, db.Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NOT NULL", user.ID).
		Count(&revoked).Error)
	require.Equal(t, int64(2), revoked)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
}
