package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chidiebere-dev/homefolio/internal/database/testutil"
	"github.com/chidiebere-dev/homefolio/internal/models"
)

func TestContactSubmit(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewContactService(db)
	require.NoError(t, err)
	ctx := context.Background()

	message, effects, err := svc.Submit(ctx, ContactInput{
		Name:    "Guest Visitor",
		Email:   "GUEST@Example.com",
		Message: "Is this still available?",
	})
	require.NoError(t, err)
	require.Equal(t, models.SenderGuest, message.SenderType)
	require.Equal(t, "guest@example.com", message.Email)

	require.Len(t, effects, 1)
	notify := effects[0].(NotifyEffect)
	require.Nil(t, notify.UserID)
	require.Equal(t, models.NotificationContact, notify.Category)

	userID := "user-1"
	message, _, err = svc.Submit(ctx, ContactInput{
		Name:    "Member",
		Email:   "member@example.com",
		Message: "Question about a listing",
		UserID:  &userID,
	})
	require.NoError(t, err)
	require.Equal(t, models.SenderUser, message.SenderType)

	_, _, err = svc.Submit(ctx, ContactInput{Name: "", Email: "", Message: ""})
	require.Error(t, err)

	messages, total, err := svc.ListMessages(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, messages, 2)
}

func TestNewsletterSubscribeIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewContactService(db)
	require.NoError(t, err)
	ctx := context.Background()

	subscriber, effects, err := svc.Subscribe(ctx, "News@Example.com")
	require.NoError(t, err)
	require.Equal(t, "news@example.com", subscriber.Email)
	require.Len(t, effects, 1)

	// Subscribing again is not an error and raises no duplicate notification.
	again, effects, err := svc.Subscribe(ctx, "news@example.com")
	require.NoError(t, err)
	require.Equal(t, subscriber.ID, again.ID)
	require.Empty(t, effects)

	var count int64
	require.NoError(t, db.Model(&models.NewsletterSubscriber{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestNewsletterUnsubscribeAndResubscribe(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewContactService(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = svc.Subscribe(ctx, "cycle@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, "cycle@example.com"))
	require.Error(t, svc.Unsubscribe(ctx, "cycle@example.com"))
	require.Error(t, svc.Unsubscribe(ctx, "missing@example.com"))

	// Resubscribing clears the unsubscribe marker.
	subscriber, effects, err := svc.Subscribe(ctx, "cycle@example.com")
	require.NoError(t, err)
	require.Nil(t, subscriber.UnsubscribedAt)
	require.Len(t, effects, 1)
}
