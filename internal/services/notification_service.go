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

// NotificationService serves the in-app notification feed.
type NotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNotificationService constructs a notification service.
func NewNotificationService(db *gorm.DB) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, now: time.Now}, nil
}

// List returns a page of notifications visible to the user, newest first.
// Admins also see broadcast notifications, which carry no recipient.
func (s *NotificationService) List(ctx context.Context, userID string, isAdmin bool, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, 0, apperrors.ErrBadRequest
	}

	page = normalizePage(page)
	limit = normalizeLimit(limit)

	query := s.db.WithContext(ctx).Model(&models.Notification{})
	if isAdmin {
		query = query.Where("user_id = ? OR user_id IS NULL", userID)
	} else {
		query = query.Where("user_id = ?", userID)
	}
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count: %w", err)
	}

	var items []models.Notification
	if err := query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list: %w", err)
	}
	if items == nil {
		items = []models.Notification{}
	}

	return items, total, nil
}

// UnreadCount returns the number of unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string, isAdmin bool) (int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("is_read = ?", false)
	if isAdmin {
		query = query.Where("user_id = ? OR user_id IS NULL", userID)
	} else {
		query = query.Where("user_id = ?", userID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

// MarkRead marks a single notification as read. Users can only mark
// notifications addressed to them; admins can also mark broadcasts.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, isAdmin bool, notificationID string) error {
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return apperrors.ErrBadRequest
	}

	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notificationID)
	if isAdmin {
		query = query.Where("user_id = ? OR user_id IS NULL", userID)
	} else {
		query = query.Where("user_id = ?", userID)
	}

	now := s.now()
	result := query.Updates(map[string]any{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return fmt.Errorf("notification service: mark read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkAllRead marks every visible unread notification as read and returns
// how many were updated.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string, isAdmin bool) (int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("is_read = ?", false)
	if isAdmin {
		query = query.Where("user_id = ? OR user_id IS NULL", userID)
	} else {
		query = query.Where("user_id = ?", userID)
	}

	now := s.now()
	result := query.Updates(map[string]any{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
