package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/database/testutil"
	"github.com/chidiebere-dev/homefolio/internal/models"
)

func seedResetToken(t *testing.T, db *gorm.DB, expiresAt time.Time, usedAt *time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.PasswordResetToken{
		UserID:    "user-1",
		TokenHash: "hash-" + time.Now().Format(time.RFC3339Nano),
		ExpiresAt: expiresAt,
		UsedAt:    usedAt,
	}).Error)
}

func seedVerification(t *testing.T, db *gorm.DB, expiresAt time.Time, verifiedAt *time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.EmailVerification{
		UserID:     "user-1",
		TokenHash:  "hash-" + time.Now().Format(time.RFC3339Nano),
		ExpiresAt:  expiresAt,
		VerifiedAt: verifiedAt,
	}).Error)
}

func TestCleanupTokens(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Now()
	used := now.Add(-time.Hour)

	seedResetToken(t, db, now.Add(-time.Hour), nil)  // expired
	seedResetToken(t, db, now.Add(time.Hour), &used) // consumed
	seedResetToken(t, db, now.Add(time.Hour), nil)   // live

	seedVerification(t, db, now.Add(-time.Hour), nil)  // expired
	seedVerification(t, db, now.Add(time.Hour), &used) // consumed
	seedVerification(t, db, now.Add(time.Hour), nil)   // live

	stats, err := CleanupTokens(context.Background(), db, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.PasswordResets)
	require.Equal(t, int64(2), stats.EmailVerifications)

	var resets, verifications int64
	require.NoError(t, db.Model(&models.PasswordResetToken{}).Count(&resets).Error)
	require.NoError(t, db.Model(&models.EmailVerification{}).Count(&verifications).Error)
	require.Equal(t, int64(1), resets)
	require.Equal(t, int64(1), verifications)
}

func TestRunOncePurgesSessionsAndTokens(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "secret", Issuer: "homefolio"})
	require.NoError(t, err)

	current := time.Now()
	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{
		RefreshTokenTTL: time.Minute,
		Clock:           func() time.Time { return current },
	})
	require.NoError(t, err)

	user := &models.User{Name: "Cleanup", Email: "cleanup@example.com", Password: "hashed", Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)

	_, _, err = sessions.CreateSession(user, iauth.SessionMetadata{})
	require.NoError(t, err)

	seedResetToken(t, db, current.Add(-time.Hour), nil)

	// Advance past the refresh TTL so the session counts as expired.
	current = current.Add(2 * time.Minute)

	cleaner := NewCleaner(db, sessions, WithNow(func() time.Time { return current }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var sessionCount, tokenCount int64
	require.NoError(t, db.Model(&models.Session{}).Count(&sessionCount).Error)
	require.NoError(t, db.Model(&models.PasswordResetToken{}).Count(&tokenCount).Error)
	require.Equal(t, int64(0), sessionCount)
	require.Equal(t, int64(0), tokenCount)
}

func TestStartRegistersJobs(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	cleaner := NewCleaner(db, nil, WithTokenSchedule("@every 1h"))
	require.NoError(t, cleaner.Start())

	ctx := cleaner.Stop()
	<-ctx.Done()
}
