// Package mfa implements TOTP two-factor authentication with encrypted
// secrets and hashed single-use backup codes.
package mfa

import (
	cryptoRand "crypto/rand"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/models"
	"github.com/chidiebere-dev/homefolio/pkg/crypto"
)

const (
	defaultIssuer          = "Homefolio"
	defaultBackupCodeCount = 10
	defaultQRCodeSize      = 256
)

// TOTPService stores per-user secrets encrypted at rest and verifies
// submitted codes.
type TOTPService struct {
	db            *gorm.DB
	encryptionKey []byte

	issuer      string
	backupCodes int
	qrCodeSize  int
	now         func() time.Time
}

// Option customises the service.
type Option func(*TOTPService)

// WithIssuer changes the issuer shown in authenticator apps.
func WithIssuer(issuer string) Option {
	return func(s *TOTPService) {
		if strings.TrimSpace(issuer) != "" {
			s.issuer = issuer
		}
	}
}

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *TOTPService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewTOTPService builds the service. The encryption key protects stored
// secrets and must match across restarts.
func NewTOTPService(db *gorm.DB, encryptionKey []byte, opts ...Option) (*TOTPService, error) {
	if db == nil {
		return nil, errors.New("totp: db is required")
	}
	if len(encryptionKey) == 0 {
		return nil, errors.New("totp: encryption key is required")
	}

	service := &TOTPService{
		db:            db,
		encryptionKey: encryptionKey,
		issuer:        defaultIssuer,
		backupCodes:   defaultBackupCodeCount,
		qrCodeSize:    defaultQRCodeSize,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// GenerateSecret creates a fresh secret and backup code set for the user,
// replacing any secret that was never confirmed. The plaintext backup codes
// are returned exactly once.
func (s *TOTPService) GenerateSecret(userID, email string) (*otp.Key, []string, error) {
	userID = strings.TrimSpace(userID)
	email = strings.TrimSpace(email)
	if userID == "" || email == "" {
		return nil, nil, errors.New("totp: user id and email are required")
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: s.issuer, AccountName: email})
	if err != nil {
		return nil, nil, fmt.Errorf("totp: generate key: %w", err)
	}

	plainCodes, codesJSON, err := s.newBackupCodes()
	if err != nil {
		return nil, nil, err
	}

	encryptedSecret, err := crypto.Encrypt([]byte(key.Secret()), s.encryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("totp: encrypt secret: %w", err)
	}

	if err := s.upsertSecret(userID, encryptedSecret, codesJSON); err != nil {
		return nil, nil, err
	}
	return key, plainCodes, nil
}

// VerifyCode validates a submitted code. The first success confirms the
// secret, enabling it for login challenges.
func (s *TOTPService) VerifyCode(userID, code string) (bool, error) {
	userID = strings.TrimSpace(userID)
	code = strings.TrimSpace(code)
	if userID == "" || code == "" {
		return false, errors.New("totp: user id and code are required")
	}

	secret, err := s.loadSecret(userID)
	if err != nil {
		return false, err
	}

	rawSecret, err := crypto.Decrypt(secret.Secret, s.encryptionKey)
	if err != nil {
		return false, fmt.Errorf("totp: decrypt secret: %w", err)
	}

	if !totp.Validate(code, string(rawSecret)) {
		return false, nil
	}

	now := s.now()
	updates := map[string]any{"last_used_at": &now}
	if secret.ConfirmedAt == nil {
		updates["confirmed_at"] = &now
	}
	if err := s.db.Model(secret).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("totp: update last used: %w", err)
	}
	return true, nil
}

// UseBackupCode consumes one matching backup code. A code can only ever be
// used once.
func (s *TOTPService) UseBackupCode(userID, code string) (bool, error) {
	userID = strings.TrimSpace(userID)
	code = strings.TrimSpace(code)
	if userID == "" || code == "" {
		return false, errors.New("totp: user id and code are required")
	}

	secret, err := s.loadSecret(userID)
	if err != nil {
		return false, err
	}

	var hashedCodes []string
	if err := json.Unmarshal([]byte(secret.BackupCodes), &hashedCodes); err != nil {
		return false, fmt.Errorf("totp: unmarshal backup codes: %w", err)
	}

	matched := -1
	for i, stored := range hashedCodes {
		if crypto.VerifyPassword(stored, code) {
			matched = i
			break
		}
	}
	if matched < 0 {
		return false, nil
	}

	remaining, err := json.Marshal(append(hashedCodes[:matched], hashedCodes[matched+1:]...))
	if err != nil {
		return false, fmt.Errorf("totp: marshal backup codes: %w", err)
	}
	if err := s.db.Model(secret).Update("backup_codes", string(remaining)).Error; err != nil {
		return false, fmt.Errorf("totp: update backup codes: %w", err)
	}
	return true, nil
}

// Disable deletes the user's secret and backup codes.
func (s *TOTPService) Disable(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("totp: user id is required")
	}
	return s.db.Where("user_id = ?", userID).Delete(&models.MFASecret{}).Error
}

// GenerateQRCode renders the provisioning URI as a PNG for enrolment.
func (s *TOTPService) GenerateQRCode(key *otp.Key) ([]byte, error) {
	if key == nil {
		return nil, errors.New("totp: key is required")
	}
	return qrcode.Encode(key.String(), qrcode.Medium, s.qrCodeSize)
}

func (s *TOTPService) newBackupCodes() ([]string, string, error) {
	plain := make([]string, s.backupCodes)
	hashed := make([]string, s.backupCodes)

	for i := range plain {
		code, err := randomBackupCode()
		if err != nil {
			return nil, "", fmt.Errorf("totp: generate backup code: %w", err)
		}
		hash, err := crypto.HashPassword(code)
		if err != nil {
			return nil, "", fmt.Errorf("totp: hash backup code: %w", err)
		}
		plain[i] = code
		hashed[i] = hash
	}

	encoded, err := json.Marshal(hashed)
	if err != nil {
		return nil, "", fmt.Errorf("totp: marshal backup codes: %w", err)
	}
	return plain, string(encoded), nil
}

func (s *TOTPService) upsertSecret(userID, encryptedSecret, codesJSON string) error {
	var secret models.MFASecret
	err := s.db.Where("user_id = ?", userID).First(&secret).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		secret = models.MFASecret{
			UserID:      userID,
			Secret:      encryptedSecret,
			BackupCodes: codesJSON,
		}
		if err := s.db.Create(&secret).Error; err != nil {
			return fmt.Errorf("totp: create mfa secret: %w", err)
		}
	case err != nil:
		return fmt.Errorf("totp: load mfa secret: %w", err)
	default:
		secret.Secret = encryptedSecret
		secret.BackupCodes = codesJSON
		secret.ConfirmedAt = nil
		secret.LastUsedAt = nil
		if err := s.db.Save(&secret).Error; err != nil {
			return fmt.Errorf("totp: update mfa secret: %w", err)
		}
	}
	return nil
}

func (s *TOTPService) loadSecret(userID string) (*models.MFASecret, error) {
	var secret models.MFASecret
	if err := s.db.Where("user_id = ?", userID).First(&secret).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("totp: secret not found for user %s", userID)
		}
		return nil, fmt.Errorf("totp: load secret: %w", err)
	}
	return &secret, nil
}

func randomBackupCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := cryptoRand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.EncodeToString(buf)[:8], nil
}
