package services

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/models"
	"github.com/chidiebere-dev/homefolio/internal/notifications"
	"github.com/chidiebere-dev/homefolio/pkg/logger"
	"github.com/chidiebere-dev/homefolio/pkg/mail"
)

// Effect describes a side effect produced by a service operation. Services
// return effects instead of dispatching them inline so callers control when
// (and whether) delivery happens, and tests can assert on intent without a
// mail server.
type Effect interface {
	effect()
}

// NotifyEffect creates an in-app notification. A nil UserID targets every
// admin account.
type NotifyEffect struct {
	UserID   *string
	Category string
	Title    string
	Message  string
	Link     string
	Metadata map[string]any
}

func (NotifyEffect) effect() {}

// MailEffect sends a single email.
type MailEffect struct {
	To      string
	Subject string
	Body    string
}

func (MailEffect) effect() {}

// EffectRunner executes effects returned by services. Notification inserts
// are treated as part of the operation; mail failures are logged and
// swallowed so an unreachable SMTP server never fails a request.
type EffectRunner struct {
	db     *gorm.DB
	mailer mail.Mailer
	hub    *notifications.Hub
	log    *zap.Logger
}

// NewEffectRunner constructs an effect runner. The mailer and hub are
// optional; nil disables the corresponding effect kind.
func NewEffectRunner(db *gorm.DB, mailer mail.Mailer, hub *notifications.Hub) (*EffectRunner, error) {
	if db == nil {
		return nil, errors.New("effect runner: db is required")
	}
	return &EffectRunner{
		db:     db,
		mailer: mailer,
		hub:    hub,
		log:    logger.WithModule("effects"),
	}, nil
}

// Run executes each effect in order.
func (r *EffectRunner) Run(ctx context.Context, effects []Effect) error {
	for _, effect := range effects {
		switch e := effect.(type) {
		case NotifyEffect:
			if err := r.runNotify(ctx, e); err != nil {
				return err
			}
		case MailEffect:
			r.runMail(ctx, e)
		default:
			r.log.Warn("unknown effect kind skipped")
		}
	}
	return nil
}

func (r *EffectRunner) runNotify(ctx context.Context, e NotifyEffect) error {
	notification := models.Notification{
		UserID:   e.UserID,
		Category: e.Category,
		Title:    e.Title,
		Message:  e.Message,
		Link:     e.Link,
	}

	if len(e.Metadata) > 0 {
		data, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		notification.Metadata = datatypes.JSON(data)
	}

	if err := r.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return err
	}

	r.broadcast(ctx, &notification)
	return nil
}

func (r *EffectRunner) broadcast(ctx context.Context, notification *models.Notification) {
	if r.hub == nil {
		return
	}

	event := notifications.Event{Event: "notification.created", Notification: notification}

	if notification.UserID != nil {
		r.hub.Broadcast(*notification.UserID, event)
		return
	}

	var adminIDs []string
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Pluck("id", &adminIDs).Error; err != nil {
		r.log.Warn("admin lookup for broadcast failed", zap.Error(err))
		return
	}
	r.hub.BroadcastMany(adminIDs, event)
}

func (r *EffectRunner) runMail(ctx context.Context, e MailEffect) {
	if r.mailer == nil {
		return
	}

	err := r.mailer.Send(ctx, mail.Message{To: e.To, Subject: e.Subject, Body: e.Body})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		r.log.Warn("mail delivery failed",
			zap.String("subject", e.Subject),
			zap.Error(err))
	}
}
