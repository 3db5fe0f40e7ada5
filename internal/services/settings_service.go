package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chidiebere-dev/homefolio/internal/models"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
)

// Setting keys persisted in the system_settings table.
const (
	SettingSiteName        = "site_name"
	SettingContactEmail    = "contact_email"
	SettingMaintenanceMode = "maintenance_mode"
	SettingFeaturedLimit   = "featured_limit"
)

// SiteSettings is the typed view over the settings table.
type SiteSettings struct {
	SiteName        string `json:"site_name"`
	ContactEmail    string `json:"contact_email"`
	MaintenanceMode bool   `json:"maintenance_mode"`
	FeaturedLimit   int    `json:"featured_limit"`
}

// UpdateSettingsInput carries a partial settings update.
type UpdateSettingsInput struct {
	SiteName        *string
	ContactEmail    *string
	MaintenanceMode *bool
	FeaturedLimit   *int
}

// SettingsService reads and writes installation-wide settings.
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService constructs a settings service.
func NewSettingsService(db *gorm.DB) (*SettingsService, error) {
	if db == nil {
		return nil, errors.New("settings service: db is required")
	}
	return &SettingsService{db: db}, nil
}

// Get returns the current settings. Missing rows fall back to defaults.
func (s *SettingsService) Get(ctx context.Context) (*SiteSettings, error) {
	var rows []models.SystemSetting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("settings service: load settings: %w", err)
	}

	settings := &SiteSettings{
		SiteName:      "Homefolio",
		FeaturedLimit: 6,
	}
	for _, row := range rows {
		switch row.Key {
		case SettingSiteName:
			settings.SiteName = row.Value
		case SettingContactEmail:
			settings.ContactEmail = row.Value
		case SettingMaintenanceMode:
			settings.MaintenanceMode = row.Value == "true"
		case SettingFeaturedLimit:
			if limit, err := strconv.Atoi(row.Value); err == nil && limit > 0 {
				settings.FeaturedLimit = limit
			}
		}
	}

	return settings, nil
}

// Update applies a partial settings change and returns the merged result.
func (s *SettingsService) Update(ctx context.Context, input UpdateSettingsInput) (*SiteSettings, error) {
	pairs := map[string]string{}
	if input.SiteName != nil {
		if *input.SiteName == "" {
			return nil, apperrors.NewBadRequest("site name cannot be empty")
		}
		pairs[SettingSiteName] = *input.SiteName
	}
	if input.ContactEmail != nil {
		pairs[SettingContactEmail] = *input.ContactEmail
	}
	if input.MaintenanceMode != nil {
		pairs[SettingMaintenanceMode] = strconv.FormatBool(*input.MaintenanceMode)
	}
	if input.FeaturedLimit != nil {
		if *input.FeaturedLimit < 1 {
			return nil, apperrors.NewBadRequest("featured limit must be positive")
		}
		pairs[SettingFeaturedLimit] = strconv.Itoa(*input.FeaturedLimit)
	}

	if len(pairs) > 0 {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for key, value := range pairs {
				setting := models.SystemSetting{Key: key, Value: value}
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "key"}},
					DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
				}).Create(&setting).Error; err != nil {
					return fmt.Errorf("settings service: upsert %s: %w", key, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return s.Get(ctx)
}

// MaintenanceMode reports whether the installation is in maintenance mode.
func (s *SettingsService) MaintenanceMode(ctx context.Context) (bool, error) {
	var setting models.SystemSetting
	if err := s.db.WithContext(ctx).
		First(&setting, "key = ?", SettingMaintenanceMode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("settings service: load maintenance mode: %w", err)
	}
	return setting.Value == "true", nil
}
