package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/models"
	"github.com/chidiebere-dev/homefolio/pkg/crypto"
)

// DefaultRefreshTokenTTL is the fallback refresh token lifetime.
const DefaultRefreshTokenTTL = 30 * 24 * time.Hour

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	RefreshTokenTTL time.Duration
	RefreshLength   int
	Clock           func() time.Time
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// TokenPair represents an access token and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

var (
	// ErrSessionNotFound indicates that no session matches the provided token or identifier.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionRevoked marks a session that has been revoked.
	ErrSessionRevoked = errors.New("session: revoked")
	// ErrSessionExpired signals that a refresh token has reached its expiry.
	ErrSessionExpired = errors.New("session: expired")
)

// SessionService manages creation, rotation, and revocation of user sessions.
type SessionService struct {
	db         *gorm.DB
	jwt        *JWTService
	refreshTTL time.Duration
	tokenLen   int
	now        func() time.Time
}

// NewSessionService constructs a session manager backed by the provided database and JWT service.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	ttl := cfg.RefreshTokenTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}

	length := cfg.RefreshLength
	if length <= 0 {
		length = 48
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:         db,
		jwt:        jwtService,
		refreshTTL: ttl,
		tokenLen:   length,
		now:        clock,
	}, nil
}

// CreateSession generates a new session for the user and issues a fresh token pair.
func (s *SessionService) CreateSession(user *models.User, meta SessionMetadata) (TokenPair, *models.Session, error) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return TokenPair{}, nil, errors.New("session service: user is required")
	}

	refreshToken, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, err
	}

	now := s.now()
	session := models.Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		ExpiresAt:    now.Add(s.refreshTTL),
		LastUsedAt:   now,
	}

	if err := s.db.Create(&session).Error; err != nil {
		return TokenPair{}, nil, err
	}

	accessToken, err := s.jwt.GenerateAccessToken(AccessTokenInput{
		UserID:    user.ID,
		SessionID: session.ID,
		Role:      user.Role,
	})
	if err != nil {
		return TokenPair{}, nil, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, &session, nil
}

// RefreshSession rotates the refresh token and issues a new token pair.
func (s *SessionService) RefreshSession(refreshToken string) (TokenPair, *models.Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, nil, ErrSessionNotFound
	}

	var session models.Session
	if err := s.db.Preload("User").
		Where("refresh_token = ?", refreshToken).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenPair{}, nil, ErrSessionNotFound
		}
		return TokenPair{}, nil, err
	}

	now := s.now()
	if session.RevokedAt != nil {
		return TokenPair{}, nil, ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return TokenPair{}, nil, ErrSessionExpired
	}
	if session.User == nil {
		return TokenPair{}, nil, ErrSessionNotFound
	}

	rotated, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, err
	}

	updates := map[string]any{
		"refresh_token": rotated,
		"last_used_at":  now,
		"expires_at":    now.Add(s.refreshTTL),
	}
	if err := s.db.Model(&session).Updates(updates).Error; err != nil {
		return TokenPair{}, nil, err
	}
	session.RefreshToken = rotated
	session.LastUsedAt = now
	session.ExpiresAt = now.Add(s.refreshTTL)

	accessToken, err := s.jwt.GenerateAccessToken(AccessTokenInput{
		UserID:    session.UserID,
		SessionID: session.ID,
		Role:      session.User.Role,
	})
	if err != nil {
		return TokenPair{}, nil, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: rotated}, &session, nil
}

// RevokeSession marks the session as revoked, invalidating its refresh token.
func (s *SessionService) RevokeSession(sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrSessionNotFound
	}

	now := s.now()
	result := s.db.Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RevokeUserSessions revokes every active session for a user, e.g. after a
// password reset.
func (s *SessionService) RevokeUserSessions(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("session service: user id is required")
	}

	now := s.now()
	return s.db.Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}

// CleanupExpired removes sessions that are expired or revoked.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now()
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", now).
		Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
