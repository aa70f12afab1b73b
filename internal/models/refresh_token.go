package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// RefreshToken stores only the SHA-256 of the raw token. ExpiresAt feeds a
// TTL index so expired tokens disappear on their own.
type RefreshToken struct {
	BaseDocument `bson:",inline"`
	UserID       bson.ObjectID `bson:"userId" json:"user_id"`
	TokenHash    string        `bson:"tokenHash" json:"-"`
	FamilyID     string        `bson:"familyId" json:"-"`
	ExpiresAt    time.Time     `bson:"expiresAt" json:"expires_at"`
	Revoked      bool          `bson:"revoked" json:"revoked"`
	RevokedAt    *time.Time    `bson:"revokedAt,omitempty" json:"revoked_at,omitempty"`
}

func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

func (t *RefreshToken) Revoke(now time.Time) bool {
	if t.Revoked {
		return false
	}
	at := now.UTC()
	t.Revoked = true
	t.RevokedAt = &at
	t.Touch(now)
	return true
}
