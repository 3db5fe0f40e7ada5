package models

// Contact message sender types.
const (
	SenderGuest = "guest"
	SenderUser  = "user"
)

// ContactMessage is an append-only inquiry, optionally tied to a user and/or
// a property.
type ContactMessage struct {
	BaseModel

	SenderType string `gorm:"type:varchar(16);not null;default:'guest'" json:"sender_type"`
	Name       string `gorm:"not null" json:"name"`
	Email      string `gorm:"not null" json:"email"`
	Phone      string `json:"phone"`

	UserID     *string `gorm:"type:uuid;index" json:"user_id"`
	PropertyID *string `gorm:"type:uuid;index" json:"property_id"`

	Message string `gorm:"type:text;not null" json:"message"`
}
