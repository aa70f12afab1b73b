package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type NotificationType string

const (
	NotificationFollow      NotificationType = "follow"
	NotificationLike        NotificationType = "like"
	NotificationComment     NotificationType = "comment"
	NotificationBadge       NotificationType = "badge"
	NotificationPlaylistAdd NotificationType = "playlist_add"
	NotificationSystem      NotificationType = "system"
)

// Notification expires through the TTL index on ExpiresAt.
type Notification struct {
	BaseDocument `bson:",inline"`
	RecipientID  bson.ObjectID    `bson:"recipientId" json:"recipient_id"`
	Type         NotificationType `bson:"type" json:"type"`
	Actor        *UserRef         `bson:"actor,omitempty" json:"actor,omitempty"`
	Target       *TargetRef       `bson:"target,omitempty" json:"target,omitempty"`
	Message      string           `bson:"message" json:"message"`
	IsRead       bool             `bson:"isRead" json:"is_read"`
	ReadAt       *time.Time       `bson:"readAt,omitempty" json:"read_at,omitempty"`
	ExpiresAt    *time.Time       `bson:"expiresAt,omitempty" json:"expires_at,omitempty"`
}

// NewNotification builds an unread notification that expires after ttl. A
// non-positive ttl keeps it forever.
func NewNotification(recipient bson.ObjectID, typ NotificationType, message string, ttl time.Duration, now time.Time) (*Notification, error) {
	if recipient.IsZero() {
		return nil, ErrInvalidReference
	}
	m, err := cleanText(message)
	if err != nil {
		return nil, err
	}
	n := &Notification{RecipientID: recipient, Type: typ, Message: m}
	if ttl > 0 {
		exp := now.UTC().Add(ttl)
		n.ExpiresAt = &exp
	}
	return n, nil
}

func (n *Notification) SetActor(actor UserRef, now time.Time) error {
	if actor.ID.IsZero() {
		return ErrInvalidReference
	}
	n.Actor = &actor
	n.Touch(now)
	return nil
}

func (n *Notification) SetTarget(target TargetRef) {
	n.Target = &target
}

// MarkRead is idempotent: an already read notification keeps its ReadAt and
// UpdatedAt.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.IsRead {
		return false
	}
	at := now.UTC()
	n.IsRead = true
	n.ReadAt = &at
	n.Touch(now)
	return true
}

func (n *Notification) MarkUnread(now time.Time) bool {
	if !n.IsRead {
		return false
	}
	n.IsRead = false
	n.ReadAt = nil
	n.Touch(now)
	return true
}

func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}
