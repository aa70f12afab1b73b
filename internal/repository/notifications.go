package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type NotificationStore struct {
	*Repository[models.Notification, *models.Notification]
}

func NewNotificationStore(db *database.Context, opts ...Option) *NotificationStore {
	return &NotificationStore{New[models.Notification](db, opts...)}
}

func (s *NotificationStore) ForRecipient(ctx context.Context, recipient bson.ObjectID, unreadOnly bool, skip, limit int64) (*Page[*models.Notification], error) {
	filter := query.Eq("recipientId", recipient)
	if unreadOnly {
		filter = query.And(filter, query.Eq("isRead", false))
	}
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("createdAt")), skip, limit)
}

func (s *NotificationStore) UnreadCount(ctx context.Context, recipient bson.ObjectID) (int64, error) {
	return s.Count(ctx, query.And(query.Eq("recipientId", recipient), query.Eq("isRead", false)))
}

// MarkRead marks one of the recipient's notifications read. It returns nil
// when the notification does not exist, belongs to someone else or is
// already read.
func (s *NotificationStore) MarkRead(ctx context.Context, recipient, id bson.ObjectID, now time.Time) (*models.Notification, error) {
	cond := query.And(query.Eq("recipientId", recipient), query.Eq("isRead", false))
	u := query.NewUpdate().Set("isRead", true).Set("readAt", now.UTC().Truncate(time.Millisecond))
	return s.UpdateWhere(ctx, id, cond, u)
}

// MarkAllRead marks every unread notification of the recipient read and
// returns how many changed.
func (s *NotificationStore) MarkAllRead(ctx context.Context, recipient bson.ObjectID, now time.Time) (int64, error) {
	filter := query.And(query.Eq("recipientId", recipient), query.Eq("isRead", false))
	return s.UpdateMany(ctx, filter, query.NewUpdate().Set("isRead", true).Set("readAt", now.UTC().Truncate(time.Millisecond)))
}

// DeleteExpired removes notifications past their expiry. The TTL index does
// the same in the background; this is for callers that need it now.
func (s *NotificationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.DeleteMany(ctx, query.Before("expiresAt", now))
}
