package models

// Review is a rating attached to a property. The reviewer reference is soft:
// reviews written by deleted accounts keep the captured display name.
type Review struct {
	BaseModel

	PropertyID string `gorm:"type:uuid;not null;index" json:"property_id"`

	ReviewerID   *string `gorm:"type:uuid;index" json:"reviewer_id"`
	ReviewerName string  `json:"reviewer_name"`

	Rating  int    `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment string `gorm:"type:text" json:"comment"`
}
