package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/models"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
)

// ContactInput carries a contact form submission. UserID and PropertyID are
// optional; a logged-in sender or a listing-specific inquiry fills them in.
type ContactInput struct {
	Name       string
	Email      string
	Phone      string
	Message    string
	UserID     *string
	PropertyID *string
}

// ContactService handles contact inquiries and newsletter signups.
type ContactService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewContactService constructs a contact service.
func NewContactService(db *gorm.DB) (*ContactService, error) {
	if db == nil {
		return nil, errors.New("contact service: db is required")
	}
	return &ContactService{db: db, now: time.Now}, nil
}

// Submit records an inquiry and raises an admin notification.
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (*models.ContactMessage, []Effect, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Message = strings.TrimSpace(input.Message)
	if input.Name == "" || input.Email == "" || input.Message == "" {
		return nil, nil, apperrors.NewBadRequest("name, email, and message are required")
	}

	senderType := models.SenderGuest
	if input.UserID != nil && strings.TrimSpace(*input.UserID) != "" {
		senderType = models.SenderUser
	}

	message := models.ContactMessage{
		SenderType: senderType,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      strings.TrimSpace(input.Phone),
		UserID:     input.UserID,
		PropertyID: input.PropertyID,
		Message:    input.Message,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, nil, fmt.Errorf("contact service: create message: %w", err)
	}

	metadata := map[string]any{"contact_id": message.ID}
	link := "/admin/contact/" + message.ID
	if input.PropertyID != nil {
		metadata["property_id"] = *input.PropertyID
	}

	effects := []Effect{
		NotifyEffect{
			Category: models.NotificationContact,
			Title:    "New inquiry",
			Message:  fmt.Sprintf("%s (%s) sent a message", message.Name, message.Email),
			Link:     link,
			Metadata: metadata,
		},
	}

	return &message, effects, nil
}

// ListMessages returns a page of inquiries, newest first.
func (s *ContactService) ListMessages(ctx context.Context, page, limit int) ([]models.ContactMessage, int64, error) {
	page = normalizePage(page)
	limit = normalizeLimit(limit)

	query := s.db.WithContext(ctx).Model(&models.ContactMessage{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("contact service: count messages: %w", err)
	}

	var messages []models.ContactMessage
	if err := query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("contact service: list messages: %w", err)
	}
	if messages == nil {
		messages = []models.ContactMessage{}
	}

	return messages, total, nil
}

// Subscribe adds an address to the newsletter list. Re-subscribing a known
// address clears any previous unsubscribe and is not an error.
func (s *ContactService) Subscribe(ctx context.Context, email string) (*models.NewsletterSubscriber, []Effect, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil, apperrors.NewBadRequest("email is required")
	}

	var subscriber models.NewsletterSubscriber
	err := s.db.WithContext(ctx).First(&subscriber, "email = ?", email).Error
	switch {
	case err == nil:
		if subscriber.UnsubscribedAt == nil {
			return &subscriber, nil, nil
		}
		if err := s.db.WithContext(ctx).
			Model(&subscriber).
			Update("unsubscribed_at", nil).Error; err != nil {
			return nil, nil, fmt.Errorf("contact service: resubscribe: %w", err)
		}
		subscriber.UnsubscribedAt = nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		subscriber = models.NewsletterSubscriber{Email: email}
		if err := s.db.WithContext(ctx).Create(&subscriber).Error; err != nil {
			if isUniqueConstraintError(err) {
				return s.Subscribe(ctx, email)
			}
			return nil, nil, fmt.Errorf("contact service: create subscriber: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("contact service: load subscriber: %w", err)
	}

	effects := []Effect{
		NotifyEffect{
			Category: models.NotificationNewsletter,
			Title:    "Newsletter signup",
			Message:  fmt.Sprintf("%s subscribed to the newsletter", email),
			Metadata: map[string]any{"email": email},
		},
	}

	return &subscriber, effects, nil
}

// Unsubscribe marks an address as unsubscribed.
func (s *ContactService) Unsubscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperrors.ErrBadRequest
	}

	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&models.NewsletterSubscriber{}).
		Where("email = ? AND unsubscribed_at IS NULL", email).
		Update("unsubscribed_at", &now)
	if result.Error != nil {
		return fmt.Errorf("contact service: unsubscribe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
