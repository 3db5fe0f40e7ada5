package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/auth/mfa"
	"github.com/chidiebere-dev/homefolio/internal/models"
	"github.com/chidiebere-dev/homefolio/pkg/crypto"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/metrics"
)

const (
	defaultVerificationTTL = 48 * time.Hour
	defaultResetTTL        = time.Hour

	verificationTokenLength = 32
	resetTokenLength        = 32
)

// AuthConfig tunes the registration and recovery flows.
type AuthConfig struct {
	// AppBaseURL is the public origin used to build links in emails.
	AppBaseURL      string
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	Clock           func() time.Time
}

// RegisterInput carries a new account registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// LoginInput carries a login attempt. TwoFactorCode may be a TOTP code or a
// backup code; it is only consulted when the account has 2FA enabled.
type LoginInput struct {
	Email         string
	Password      string
	TwoFactorCode string
	IPAddress     string
	UserAgent     string
}

// LoginResult is a successful authentication.
type LoginResult struct {
	User   *models.User
	Tokens auth.TokenPair
}

// AuthService implements registration, login, email verification, and the
// password recovery flows.
type AuthService struct {
	db       *gorm.DB
	sessions *auth.SessionService
	totp     *mfa.TOTPService

	baseURL         string
	verificationTTL time.Duration
	resetTTL        time.Duration
	now             func() time.Time
}

// NewAuthService constructs the authentication service.
func NewAuthService(db *gorm.DB, sessions *auth.SessionService, totp *mfa.TOTPService, cfg AuthConfig) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if sessions == nil {
		return nil, errors.New("auth service: session service is required")
	}
	if totp == nil {
		return nil, errors.New("auth service: totp service is required")
	}

	verificationTTL := cfg.VerificationTTL
	if verificationTTL <= 0 {
		verificationTTL = defaultVerificationTTL
	}
	resetTTL := cfg.ResetTTL
	if resetTTL <= 0 {
		resetTTL = defaultResetTTL
	}
	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &AuthService{
		db:              db,
		sessions:        sessions,
		totp:            totp,
		baseURL:         strings.TrimRight(cfg.AppBaseURL, "/"),
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
		now:             clock,
	}, nil
}

// Register creates a new account and issues a verification email.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, []Effect, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" {
		return nil, nil, apperrors.NewBadRequest("name and email are required")
	}
	if len(input.Password) < 8 {
		return nil, nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("auth service: hash password: %w", err)
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashed,
		Phone:    strings.TrimSpace(input.Phone),
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, nil, apperrors.NewConflict("an account with this email already exists")
		}
		return nil, nil, fmt.Errorf("auth service: create user: %w", err)
	}

	verifyEffect, err := s.issueVerification(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	effects := []Effect{
		verifyEffect,
		NotifyEffect{
			Category: models.NotificationAccount,
			Title:    "New registration",
			Message:  fmt.Sprintf("%s (%s) signed up", user.Name, user.Email),
			Metadata: map[string]any{"user_id": user.ID},
		},
	}

	return &user, effects, nil
}

// Login verifies the credentials and, when enabled, the second factor, then
// opens a session. Missing second factor is reported as ErrTwoFactorRequired
// so clients can prompt for the code and retry.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth service: load user: %w", err)
	}

	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrForbidden
	}
	if !crypto.VerifyPassword(user.Password, input.Password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		code := strings.TrimSpace(input.TwoFactorCode)
		if code == "" {
			return nil, apperrors.ErrTwoFactorRequired
		}
		ok, err := s.totp.VerifyCode(user.ID, code)
		if err != nil {
			return nil, fmt.Errorf("auth service: verify totp: %w", err)
		}
		if !ok {
			ok, err = s.totp.UseBackupCode(user.ID, code)
			if err != nil {
				return nil, fmt.Errorf("auth service: verify backup code: %w", err)
			}
		}
		if !ok {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrTwoFactorInvalid
		}
	}

	tokens, _, err := s.sessions.CreateSession(&user, auth.SessionMetadata{
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: create session: %w", err)
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"last_login_at": &now,
		"last_login_ip": input.IPAddress,
	}).Error; err != nil {
		return nil, fmt.Errorf("auth service: record login: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &LoginResult{User: &user, Tokens: tokens}, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.ErrBadRequest
	}

	hash := crypto.HashToken(token)
	now := s.now()

	var verification models.EmailVerification
	if err := s.db.WithContext(ctx).
		Where("token_hash = ?", hash).
		First(&verification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewBadRequest("invalid or expired verification link")
		}
		return fmt.Errorf("auth service: load verification: %w", err)
	}

	if verification.VerifiedAt != nil || now.After(verification.ExpiresAt) {
		return apperrors.NewBadRequest("invalid or expired verification link")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&verification).Update("verified_at", &now).Error; err != nil {
			return fmt.Errorf("auth service: consume verification: %w", err)
		}
		return tx.Model(&models.User{}).
			Where("id = ?", verification.UserID).
			Update("verified", true).Error
	})
}

// ResendVerification issues a fresh verification email. Unknown addresses
// and already verified accounts are not distinguishable to the caller.
func (s *AuthService) ResendVerification(ctx context.Context, email string) ([]Effect, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.ErrBadRequest
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("auth service: load user: %w", err)
	}
	if user.Verified {
		return nil, nil
	}

	effect, err := s.issueVerification(ctx, &user)
	if err != nil {
		return nil, err
	}
	return []Effect{effect}, nil
}

// ForgotPassword issues a password reset email. The response never reveals
// whether the address exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) ([]Effect, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.ErrBadRequest
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("auth service: load user: %w", err)
	}

	token, err := crypto.GenerateToken(resetTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth service: generate reset token: %w", err)
	}

	reset := models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: crypto.HashToken(token),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return nil, fmt.Errorf("auth service: store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	effects := []Effect{
		MailEffect{
			To:      user.Email,
			Subject: "Reset your Homefolio password",
			Body: fmt.Sprintf("Hi %s,\r\n\r\nUse the link below to choose a new password. It expires in %s.\r\n\r\n%s\r\n\r\nIf you did not request this, you can ignore this email.",
				user.Name, s.resetTTL, link),
		},
	}
	return effects, nil
}

// ResetPassword consumes a reset token, replaces the password, and revokes
// every active session for the account.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.ErrBadRequest
	}
	if len(newPassword) < 8 {
		return apperrors.NewBadRequest("password must be at least 8 characters")
	}

	hash := crypto.HashToken(token)
	now := s.now()

	var reset models.PasswordResetToken
	if err := s.db.WithContext(ctx).
		Where("token_hash = ?", hash).
		First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewBadRequest("invalid or expired reset link")
		}
		return fmt.Errorf("auth service: load reset token: %w", err)
	}

	if reset.UsedAt != nil || now.After(reset.ExpiresAt) {
		return apperrors.NewBadRequest("invalid or expired reset link")
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth service: hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&reset).Update("used_at", &now).Error; err != nil {
			return fmt.Errorf("auth service: consume reset token: %w", err)
		}
		return tx.Model(&models.User{}).
			Where("id = ?", reset.UserID).
			Update("password", hashed).Error
	})
	if err != nil {
		return err
	}

	return s.sessions.RevokeUserSessions(reset.UserID)
}

// ConfirmTwoFactor verifies the first TOTP code after setup and enables 2FA
// on the account.
func (s *AuthService) ConfirmTwoFactor(ctx context.Context, userID, code string) error {
	ok, err := s.totp.VerifyCode(userID, code)
	if err != nil {
		return fmt.Errorf("auth service: verify totp: %w", err)
	}
	if !ok {
		return apperrors.ErrTwoFactorInvalid
	}

	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("two_factor_enabled", true).Error
}

// DisableTwoFactor turns off 2FA after re-verifying the account password.
func (s *AuthService) DisableTwoFactor(ctx context.Context, userID, password string) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("auth service: load user: %w", err)
	}
	if !crypto.VerifyPassword(user.Password, password) {
		return apperrors.ErrInvalidCredentials
	}

	if err := s.totp.Disable(userID); err != nil {
		return fmt.Errorf("auth service: disable totp: %w", err)
	}

	return s.db.WithContext(ctx).
		Model(&user).
		Update("two_factor_enabled", false).Error
}

func (s *AuthService) issueVerification(ctx context.Context, user *models.User) (Effect, error) {
	token, err := crypto.GenerateToken(verificationTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth service: generate verification token: %w", err)
	}

	verification := models.EmailVerification{
		UserID:    user.ID,
		TokenHash: crypto.HashToken(token),
		ExpiresAt: s.now().Add(s.verificationTTL),
	}
	if err := s.db.WithContext(ctx).Create(&verification).Error; err != nil {
		return nil, fmt.Errorf("auth service: store verification token: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	return MailEffect{
		To:      user.Email,
		Subject: "Verify your Homefolio account",
		Body: fmt.Sprintf("Hi %s,\r\n\r\nWelcome to Homefolio. Confirm your email address with the link below.\r\n\r\n%s",
			user.Name, link),
	}, nil
}
