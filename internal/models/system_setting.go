package models

import "time"

// SystemSetting is a key/value row backing the admin-editable site
// configuration (site name, maintenance mode, featured limit).
type SystemSetting struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `gorm:"not null" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
