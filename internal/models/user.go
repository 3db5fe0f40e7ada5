package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles supported by the marketplace.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User describes a marketplace account. Properties and transactions keep a
// soft reference to their creator; deleting a user never cascades.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`

	Role     string `gorm:"type:varchar(16);default:'user';index" json:"role"`
	Verified bool   `gorm:"default:false" json:"verified"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	TwoFactorEnabled bool       `gorm:"default:false" json:"two_factor_enabled"`
	MFASecret        *MFASecret `gorm:"foreignKey:UserID" json:"-"`

	// WalletBalance mirrors the sum of the transaction ledger. The ledger is
	// the source of truth; the stored balance avoids aggregating on every read.
	WalletBalance float64 `gorm:"default:0" json:"wallet_balance"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
