package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification categories produced by side-effect triggers.
const (
	NotificationWallet     = "wallet"
	NotificationContact    = "contact"
	NotificationNewsletter = "newsletter"
	NotificationProperty   = "property"
	NotificationAccount    = "account"
)

// Notification represents an in-app notification. A nil UserID addresses the
// notification to all admins rather than a single recipient.
type Notification struct {
	BaseModel

	UserID   *string        `gorm:"type:uuid;index" json:"user_id"`
	Category string         `gorm:"type:varchar(32);not null" json:"category"`
	Title    string         `gorm:"type:varchar(255);not null" json:"title"`
	Message  string         `gorm:"type:text" json:"message"`
	Link     string         `json:"link"`
	Metadata datatypes.JSON `json:"metadata"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
