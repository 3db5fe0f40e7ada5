package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Property listing types.
const (
	PropertyTypeSale  = "sale"
	PropertyTypeRent  = "rent"
	PropertyTypeLease = "lease"
	PropertyTypeLand  = "land"
)

// Property lifecycle statuses.
const (
	PropertyStatusAvailable = "available"
	PropertyStatusSold      = "sold"
	PropertyStatusRented    = "rented"
	PropertyStatusPending   = "pending"
)

// Property represents a single marketplace listing.
type Property struct {
	BaseModel

	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"not null;index" json:"price"`
	Location    string  `gorm:"not null;index" json:"location"`

	Type   string `gorm:"type:varchar(16);not null;index" json:"type"`
	Status string `gorm:"type:varchar(16);not null;default:'available';index" json:"status"`

	Bedrooms  int `json:"bedrooms"`
	Bathrooms int `json:"bathrooms"`
	Sqft      int `json:"sqft"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Images holds an ordered JSON array of URLs. Every listing carries at
	// least one image; the service layer enforces this.
	Images datatypes.JSON `json:"images"`

	Featured bool  `gorm:"default:false;index" json:"featured"`
	Views    int64 `gorm:"default:0" json:"views"`

	CreatedByID *string `gorm:"type:uuid;index" json:"created_by_id"`
	CreatedBy   *User   `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	Reviews []Review `gorm:"foreignKey:PropertyID" json:"reviews,omitempty"`
}

// ValidPropertyType reports whether the value is a recognised listing type.
func ValidPropertyType(value string) bool {
	switch value {
	case PropertyTypeSale, PropertyTypeRent, PropertyTypeLease, PropertyTypeLand:
		return true
	}
	return false
}

// ValidPropertyStatus reports whether the value is a recognised status.
func ValidPropertyStatus(value string) bool {
	switch value {
	case PropertyStatusAvailable, PropertyStatusSold, PropertyStatusRented, PropertyStatusPending:
		return true
	}
	return false
}

// ImageURLs decodes the stored image list.
func (p *Property) ImageURLs() []string {
	if len(p.Images) == 0 {
		return nil
	}
	var urls []string
	if err := json.Unmarshal(p.Images, &urls); err != nil {
		return nil
	}
	return urls
}

// SetImageURLs encodes the ordered image list for storage.
func (p *Property) SetImageURLs(urls []string) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	p.Images = datatypes.JSON(data)
	return nil
}
