package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type NotificationService struct {
	notifications *repository.NotificationStore
	ttl           time.Duration
	now           func() time.Time
}

func NewNotificationService(stores *repository.Stores, ttl time.Duration) *NotificationService {
	return &NotificationService{notifications: stores.Notifications, ttl: ttl, now: models.Now}
}

// Notify stores a notification for recipient. Users are never notified of
// their own actions.
func (s *NotificationService) Notify(ctx context.Context, recipient bson.ObjectID, typ models.NotificationType, actor *models.UserRef, target *models.TargetRef, message string) (*models.Notification, error) {
	if actor != nil && actor.ID == recipient {
		return nil, nil
	}
	now := s.now()
	n, err := models.NewNotification(recipient, typ, message, s.ttl, now)
	if err != nil {
		return nil, err
	}
	if actor != nil {
		if err := n.SetActor(*actor, now); err != nil {
			return nil, err
		}
	}
	if target != nil {
		n.SetTarget(*target)
	}
	return s.notifications.Create(ctx, n)
}

// notifyQuietly is Notify for side effects of another action: a failure is
// logged and does not fail the action.
func (s *NotificationService) notifyQuietly(ctx context.Context, recipient bson.ObjectID, typ models.NotificationType, actor *models.UserRef, target *models.TargetRef, message string) {
	if _, err := s.Notify(ctx, recipient, typ, actor, target, message); err != nil {
		slog.Warn("notification failed", "error", err, "user_id", recipient.Hex(), "type", string(typ))
	}
}

func (s *NotificationService) List(ctx context.Context, userID bson.ObjectID, unreadOnly bool, skip, limit int64) (*repository.Page[*models.Notification], error) {
	skip, limit = Bounds(skip, limit)
	return s.notifications.ForRecipient(ctx, userID, unreadOnly, skip, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

// MarkRead is idempotent: marking a read notification returns it unchanged.
func (s *NotificationService) MarkRead(ctx context.Context, userID bson.ObjectID, notificationID string) (*models.Notification, error) {
	id, err := parseID(notificationID, ErrNotificationNotFound)
	if err != nil {
		return nil, err
	}
	n, err := s.notifications.MarkRead(ctx, userID, id, s.now())
	if err != nil || n != nil {
		return n, err
	}
	existing, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.RecipientID != userID {
		return nil, ErrNotificationNotFound
	}
	return existing, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID, s.now())
}
