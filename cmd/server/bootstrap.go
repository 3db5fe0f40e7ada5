package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/api"
	"github.com/chidiebere-dev/homefolio/internal/app"
	"github.com/chidiebere-dev/homefolio/internal/app/maintenance"
	iauth "github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/auth/mfa"
	"github.com/chidiebere-dev/homefolio/internal/database"
	"github.com/chidiebere-dev/homefolio/internal/handlers"
	"github.com/chidiebere-dev/homefolio/internal/models"
	"github.com/chidiebere-dev/homefolio/internal/notifications"
	"github.com/chidiebere-dev/homefolio/internal/payment"
	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/crypto"
	"github.com/chidiebere-dev/homefolio/pkg/logger"
	"github.com/chidiebere-dev/homefolio/pkg/mail"
)

// runtimeStack holds every long-lived component wired at start-up.
type runtimeStack struct {
	DB      *gorm.DB
	Router  *gin.Engine
	Cleaner *maintenance.Cleaner
}

// Close releases the stack's resources.
func (s *runtimeStack) Close(log *zap.Logger) {
	if s.DB == nil {
		return
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}
}

func buildRuntimeStack(cfg *app.Config) (*runtimeStack, error) {
	db, err := database.Open(cfg.DatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}
	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(cfg.Database.Driver))))

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionSvc, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{
		RefreshTokenTTL: cfg.Auth.Session.RefreshTTL,
		RefreshLength:   cfg.Auth.Session.RefreshLength,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise session service: %w", err)
	}

	totpSvc, err := mfa.NewTOTPService(db, []byte(cfg.Auth.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("initialise totp service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}

	hub := notifications.NewHub()

	effects, err := services.NewEffectRunner(db, mailer, hub)
	if err != nil {
		return nil, fmt.Errorf("initialise effect runner: %w", err)
	}

	authSvc, err := services.NewAuthService(db, sessionSvc, totpSvc, services.AuthConfig{
		AppBaseURL:      cfg.App.BaseURL,
		VerificationTTL: cfg.Auth.Tokens.VerificationTTL,
		ResetTTL:        cfg.Auth.Tokens.ResetTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise auth service: %w", err)
	}

	userSvc, err := services.NewUserService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}

	propertySvc, err := services.NewPropertyService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise property service: %w", err)
	}

	verifier, err := buildPaymentVerifier(cfg)
	if err != nil {
		return nil, err
	}
	walletSvc, err := services.NewWalletService(db, verifier)
	if err != nil {
		return nil, fmt.Errorf("initialise wallet service: %w", err)
	}

	notificationSvc, err := services.NewNotificationService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise notification service: %w", err)
	}

	contactSvc, err := services.NewContactService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise contact service: %w", err)
	}

	settingsSvc, err := services.NewSettingsService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise settings service: %w", err)
	}

	if err := seedAdminAccount(db, cfg.Admin); err != nil {
		return nil, err
	}

	router := api.NewRouter(jwtService, api.Handlers{
		Auth:          handlers.NewAuthHandler(authSvc, sessionSvc, effects),
		Security:      handlers.NewSecurityHandler(authSvc, userSvc, totpSvc),
		Properties:    handlers.NewPropertyHandler(propertySvc, effects),
		AdminProps:    handlers.NewAdminPropertyHandler(propertySvc),
		Users:         handlers.NewUserHandler(userSvc),
		Profile:       handlers.NewProfileHandler(userSvc),
		Wallet:        handlers.NewWalletHandler(walletSvc, effects),
		Transactions:  handlers.NewTransactionHandler(walletSvc, effects),
		Notifications: handlers.NewNotificationHandler(notificationSvc, hub),
		Contact:       handlers.NewContactHandler(contactSvc, effects),
		Newsletter:    handlers.NewNewsletterHandler(contactSvc, effects),
		Settings:      handlers.NewSettingsHandler(settingsSvc),
		Health:        handlers.NewHealthHandler(db),
	}, api.Config{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimit:       cfg.Server.RateLimit,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})

	return &runtimeStack{
		DB:      db,
		Router:  router,
		Cleaner: maintenance.NewCleaner(db, sessionSvc),
	}, nil
}

func buildPaymentVerifier(cfg *app.Config) (payment.Verifier, error) {
	if strings.TrimSpace(cfg.Payment.Flutterwave.SecretKey) == "" {
		return nil, errors.New("payment.flutterwave.secret_key must be configured")
	}
	client, err := payment.NewFlutterwaveClient(cfg.FlutterwaveConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise payment verifier: %w", err)
	}
	return client, nil
}

// seedAdminAccount ensures a bootstrap admin exists when configured. The
// account is only created on first start; existing accounts are untouched.
func seedAdminAccount(db *gorm.DB, cfg app.AdminConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil
	}
	if strings.TrimSpace(cfg.Password) == "" {
		return errors.New("admin.password must be set when admin.email is configured")
	}

	ctx := context.Background()

	var count int64
	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return fmt.Errorf("seed admin: lookup: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("seed admin: hash password: %w", err)
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "Administrator"
	}

	admin := models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
		Verified: true,
		IsActive: true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: create: %w", err)
	}

	logger.WithModule("bootstrap").Info("admin account created", zap.String("email", email))
	return nil
}
