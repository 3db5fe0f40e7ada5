package models

import "time"

// NewsletterSubscriber records a mailing-list signup.
type NewsletterSubscriber struct {
	BaseModel

	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at"`
}
