package models

import "time"

// MFASecret stores the encrypted TOTP secret and hashed backup codes for a user.
type MFASecret struct {
	BaseModel

	UserID      string     `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Secret      string     `gorm:"not null" json:"-"`
	BackupCodes string     `gorm:"type:text" json:"-"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	LastUsedAt  *time.Time `json:"last_used_at"`
}
