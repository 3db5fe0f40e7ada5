package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/database/testutil"
	"github.com/chidiebere-dev/homefolio/internal/models"
)

func seedNotification(t *testing.T, db *gorm.DB, userID *string, category string) *models.Notification {
	t.Helper()

	notification := &models.Notification{
		UserID:   userID,
		Category: category,
		Title:    "Test",
		Message:  "test message",
	}
	require.NoError(t, db.Create(notification).Error)
	return notification
}

func TestNotificationVisibility(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	userID := "user-1"
	otherID := "user-2"

	mine := seedNotification(t, db, &userID, models.NotificationWallet)
	seedNotification(t, db, &otherID, models.NotificationWallet)
	broadcast := seedNotification(t, db, nil, models.NotificationContact)

	// Regular users see only their own notifications.
	items, total, err := svc.List(ctx, userID, false, false, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, mine.ID, items[0].ID)

	// Admins also see broadcasts.
	items, total, err = svc.List(ctx, userID, true, false, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	ids := []string{items[0].ID, items[1].ID}
	require.ElementsMatch(t, []string{mine.ID, broadcast.ID}, ids)
}

func TestMarkReadScoping(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	userID := "user-1"
	otherID := "user-2"
	mine := seedNotification(t, db, &userID, models.NotificationWallet)
	theirs := seedNotification(t, db, &otherID, models.NotificationWallet)
	broadcast := seedNotification(t, db, nil, models.NotificationContact)

	require.NoError(t, svc.MarkRead(ctx, userID, false, mine.ID))

	// A user cannot mark someone else's notification, nor a broadcast.
	require.Error(t, svc.MarkRead(ctx, userID, false, theirs.ID))
	require.Error(t, svc.MarkRead(ctx, userID, false, broadcast.ID))

	// An admin can mark a broadcast.
	require.NoError(t, svc.MarkRead(ctx, userID, true, broadcast.ID))

	var loaded models.Notification
	require.NoError(t, db.First(&loaded, "id = ?", mine.ID).Error)
	require.True(t, loaded.IsRead)
	require.NotNil(t, loaded.ReadAt)
}

func TestMarkAllReadAndUnreadCount(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	userID := "user-1"
	for i := 0; i < 3; i++ {
		seedNotification(t, db, &userID, models.NotificationAccount)
	}
	seedNotification(t, db, nil, models.NotificationContact)

	count, err := svc.UnreadCount(ctx, userID, false)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	count, err = svc.UnreadCount(ctx, userID, true)
	require.NoError(t, err)
	require.Equal(t, int64(4), count)

	updated, err := svc.MarkAllRead(ctx, userID, false)
	require.NoError(t, err)
	require.Equal(t, int64(3), updated)

	count, err = svc.UnreadCount(ctx, userID, true)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestEffectRunnerCreatesNotifications(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	runner, err := NewEffectRunner(db, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	userID := "user-1"
	err = runner.Run(ctx, []Effect{
		NotifyEffect{
			UserID:   &userID,
			Category: models.NotificationWallet,
			Title:    "Wallet funded",
			Message:  "credited",
			Metadata: map[string]any{"amount": 100},
		},
		// Mail with no mailer configured is a no-op, never an error.
		MailEffect{To: "user@example.com", Subject: "hi", Body: "hello"},
	})
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	require.Equal(t, &userID, notifications[0].UserID)
	require.Contains(t, string(notifications[0].Metadata), "amount")
}
