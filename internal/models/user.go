package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the account aggregate. Badges and favourite genres are embedded;
// follower counts are maintained with atomic increments by the follow flow
// because the follow edges live in their own collection.
type User struct {
	BaseDocument   `bson:",inline"`
	Email          string        `bson:"email" json:"email"`
	Username       string        `bson:"username" json:"username"`
	PasswordHash   string        `bson:"passwordHash" json:"-"`
	Role           string        `bson:"role" json:"role"`
	AuthProvider   string        `bson:"authProvider" json:"-"`
	DisplayName    string        `bson:"displayName,omitempty" json:"display_name,omitempty"`
	Bio            string        `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL      string        `bson:"avatarUrl,omitempty" json:"avatar_url,omitempty"`
	FavoriteGenres []string      `bson:"favoriteGenres" json:"favorite_genres"`
	Badges         []EarnedBadge `bson:"badges" json:"badges"`
	Stats          UserStats     `bson:"stats" json:"stats"`
	LastLoginAt    *time.Time    `bson:"lastLoginAt,omitempty" json:"last_login_at,omitempty"`
}

// NewUser returns a user with empty embedded collections.
func NewUser(email, username, passwordHash string) *User {
	return &User{
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Username:       strings.TrimSpace(username),
		PasswordHash:   passwordHash,
		Role:           RoleUser,
		AuthProvider:   "email",
		FavoriteGenres: []string{},
		Badges:         []EarnedBadge{},
	}
}

// Ref returns the snapshot other aggregates embed.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) SetProfile(displayName, bio, avatarURL string, now time.Time) {
	u.DisplayName = strings.TrimSpace(displayName)
	u.Bio = strings.TrimSpace(bio)
	u.AvatarURL = strings.TrimSpace(avatarURL)
	u.Touch(now)
}

func (u *User) SetRole(role string, now time.Time) {
	if u.Role == role {
		return
	}
	u.Role = role
	u.Touch(now)
}

func (u *User) RecordLogin(now time.Time) {
	at := now.UTC()
	u.LastLoginAt = &at
	u.Touch(now)
}

// AddFavoriteGenre is idempotent: an existing genre leaves the document and
// UpdatedAt untouched. It reports whether anything changed.
func (u *User) AddFavoriteGenre(genre string, now time.Time) (bool, error) {
	g, err := cleanText(genre)
	if err != nil {
		return false, err
	}
	var added bool
	u.FavoriteGenres, added = addUnique(u.FavoriteGenres, strings.ToLower(g))
	if added {
		u.Touch(now)
	}
	return added, nil
}

func (u *User) RemoveFavoriteGenre(genre string, now time.Time) bool {
	var removed bool
	u.FavoriteGenres, removed = removeValue(u.FavoriteGenres, strings.TrimSpace(genre))
	if removed {
		u.Touch(now)
	}
	return removed
}

func (u *User) HasBadge(badgeID bson.ObjectID) bool {
	for _, b := range u.Badges {
		if b.BadgeID == badgeID {
			return true
		}
	}
	return false
}

// AddBadge is idempotent on the badge id.
func (u *User) AddBadge(badge EarnedBadge, now time.Time) (bool, error) {
	if badge.BadgeID.IsZero() {
		return false, ErrInvalidReference
	}
	if u.HasBadge(badge.BadgeID) {
		return false, nil
	}
	if badge.EarnedAt.IsZero() {
		badge.EarnedAt = now.UTC()
	}
	u.Badges = append(u.Badges, badge)
	u.Stats.BadgesCount = int64(len(u.Badges))
	u.Touch(now)
	return true, nil
}

func (u *User) RemoveBadge(badgeID bson.ObjectID, now time.Time) bool {
	for i, b := range u.Badges {
		if b.BadgeID == badgeID {
			u.Badges = append(u.Badges[:i:i], u.Badges[i+1:]...)
			u.Stats.BadgesCount = int64(len(u.Badges))
			u.Touch(now)
			return true
		}
	}
	return false
}
