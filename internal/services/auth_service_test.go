package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/auth/mfa"
	"github.com/chidiebere-dev/homefolio/internal/database/testutil"
	"github.com/chidiebere-dev/homefolio/internal/models"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "homefolio"})
	require.NoError(t, err)

	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{})
	require.NoError(t, err)

	totpSvc, err := mfa.NewTOTPService(db, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	svc, err := NewAuthService(db, sessions, totpSvc, AuthConfig{AppBaseURL: "https://homefolio.test"})
	require.NoError(t, err)
	return svc, db
}

func registerTestUser(t *testing.T, svc *AuthService, email string) *models.User {
	t.Helper()

	user, _, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Test User",
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterIssuesVerificationEmail(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	user, effects, err := svc.Register(ctx, RegisterInput{
		Name:     "Ada Obi",
		Email:    "Ada@Example.COM",
		Password: "password123",
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.Equal(t, models.RoleUser, user.Role)
	require.False(t, user.Verified)

	require.Len(t, effects, 2)
	mailEffect, ok := effects[0].(MailEffect)
	require.True(t, ok)
	require.Equal(t, "ada@example.com", mailEffect.To)
	require.Contains(t, mailEffect.Body, "https://homefolio.test/verify-email?token=")

	var count int64
	require.NoError(t, db.Model(&models.EmailVerification{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// Duplicate email is a conflict.
	_, _, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ada@example.com", Password: "password123"})
	require.Error(t, err)
	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrConflict.Code, appErr.Code)
}

func TestLoginFlow(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "login@example.com")

	result, err := svc.Login(ctx, LoginInput{Email: "login@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Tokens.AccessToken)
	require.NotEmpty(t, result.Tokens.RefreshToken)
	require.NotNil(t, result.User.LastLoginAt)

	_, err = svc.Login(ctx, LoginInput{Email: "login@example.com", Password: "wrong"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "inactive@example.com")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	_, err := svc.Login(ctx, LoginInput{Email: "inactive@example.com", Password: "password123"})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestLoginWithTwoFactor(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "2fa@example.com")

	totpSvc, err := mfa.NewTOTPService(db, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	key, _, err := totpSvc.GenerateSecret(user.ID, user.Email)
	require.NoError(t, err)

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmTwoFactor(ctx, user.ID, code))

	// No code supplied: challenge.
	_, err = svc.Login(ctx, LoginInput{Email: "2fa@example.com", Password: "password123"})
	require.ErrorIs(t, err, apperrors.ErrTwoFactorRequired)

	// Wrong code rejected.
	_, err = svc.Login(ctx, LoginInput{Email: "2fa@example.com", Password: "password123", TwoFactorCode: "000000"})
	require.Error(t, err)

	// Valid code accepted.
	code, err = totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	result, err := svc.Login(ctx, LoginInput{Email: "2fa@example.com", Password: "password123", TwoFactorCode: code})
	require.NoError(t, err)
	require.NotEmpty(t, result.Tokens.AccessToken)

	// Disable with password re-check.
	require.NoError(t, svc.DisableTwoFactor(ctx, user.ID, "password123"))
	result, err = svc.Login(ctx, LoginInput{Email: "2fa@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotNil(t, result.User)
}

func TestVerifyEmailFlow(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	user, effects, err := svc.Register(ctx, RegisterInput{
		Name:     "Verify Me",
		Email:    "verify@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	mailEffect := effects[0].(MailEffect)
	token := extractToken(t, mailEffect.Body, "verify-email?token=")

	require.NoError(t, svc.VerifyEmail(ctx, token))

	var loaded models.User
	require.NoError(t, db.First(&loaded, "id = ?", user.ID).Error)
	require.True(t, loaded.Verified)

	// A consumed token cannot be replayed.
	require.Error(t, svc.VerifyEmail(ctx, token))
	require.Error(t, svc.VerifyEmail(ctx, "bogus"))
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "reset@example.com")

	login, err := svc.Login(ctx, LoginInput{Email: "reset@example.com", Password: "password123"})
	require.NoError(t, err)

	effects, err := svc.ForgotPassword(ctx, "reset@example.com")
	require.NoError(t, err)
	require.Len(t, effects, 1)

	mailEffect := effects[0].(MailEffect)
	token := extractToken(t, mailEffect.Body, "reset-password?token=")

	require.NoError(t, svc.ResetPassword(ctx, token, "newpassword456"))

	// Old password no longer works; the new one does.
	_, err = svc.Login(ctx, LoginInput{Email: "reset@example.com", Password: "password123"})
	require.Error(t, err)
	_, err = svc.Login(ctx, LoginInput{Email: "reset@example.com", Password: "newpassword456"})
	require.NoError(t, err)

	// Existing sessions were revoked.
	var session models.Session
	require.NoError(t, db.Where("refresh_token = ?", login.Tokens.RefreshToken).First(&session).Error)
	require.NotNil(t, session.RevokedAt)
	require.Equal(t, user.ID, session.UserID)

	// Token reuse is rejected.
	require.Error(t, svc.ResetPassword(ctx, token, "anotherpass789"))
}

func TestForgotPasswordUnknownEmailSilent(t *testing.T) {
	svc, _ := newAuthService(t)

	effects, err := svc.ForgotPassword(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	require.Empty(t, effects)
}

func extractToken(t *testing.T, body, marker string) string {
	t.Helper()

	idx := strings.Index(body, marker)
	require.GreaterOrEqual(t, idx, 0, "marker %q not found in body", marker)
	token := body[idx+len(marker):]
	for i, r := range token {
		if r == '\r' || r == '\n' || r == ' ' {
			return token[:i]
		}
	}
	return token
}
