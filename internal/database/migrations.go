package database

import (
	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Review{},
		&models.WalletTransaction{},
		&models.Notification{},
		&models.ContactMessage{},
		&models.NewsletterSubscriber{},
		&models.Session{},
		&models.MFASecret{},
		&models.PasswordResetToken{},
		&models.EmailVerification{},
		&models.SystemSetting{},
	)
}

// SeedData populates default site settings.
func SeedData(db *gorm.DB) error {
	defaults := []models.SystemSetting{
		{Key: "site_name", Value: "Homefolio"},
		{Key: "contact_email", Value: "hello@homefolio.example"},
		{Key: "maintenance_mode", Value: "false"},
		{Key: "featured_limit", Value: "6"},
	}

	for _, setting := range defaults {
		if err := db.Where(models.SystemSetting{Key: setting.Key}).
			Attrs(setting).
			FirstOrCreate(&models.SystemSetting{}).Error; err != nil {
			return err
		}
	}

	return nil
}
