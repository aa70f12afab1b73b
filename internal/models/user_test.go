package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestNewUserNormalizesEmail(t *testing.T) {
	u := NewUser("  Ana@Example.COM ", " ana ", "hash")
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, RoleUser, u.Role)
	assert.False(t, u.IsAdmin())
}

func TestUserFavoriteGenresAreIdempotent(t *testing.T) {
	now := Now()
	u := NewUser("a@b.c", "ana", "")

	added, err := u.AddFavoriteGenre("Jazz", now)
	require.NoError(t, err)
	assert.True(t, added)
	updated := u.UpdatedAt

	added, err = u.AddFavoriteGenre("jazz", now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, u.FavoriteGenres, 1)
	assert.Equal(t, updated, u.UpdatedAt)

	assert.True(t, u.RemoveFavoriteGenre("JAZZ", now))
	assert.False(t, u.RemoveFavoriteGenre("jazz", now))
	assert.Empty(t, u.FavoriteGenres)
}

func TestUserBadgesKeepCountInStep(t *testing.T) {
	now := Now()
	u := NewUser("a@b.c", "ana", "")
	b1 := EarnedBadge{BadgeID: bson.NewObjectID(), Name: "First Spin"}
	b2 := EarnedBadge{BadgeID: bson.NewObjectID(), Name: "Critic"}

	for _, b := range []EarnedBadge{b1, b2, b1} {
		_, err := u.AddBadge(b, now)
		require.NoError(t, err)
	}
	assert.Len(t, u.Badges, 2)
	assert.Equal(t, int64(2), u.Stats.BadgesCount)
	assert.False(t, u.Badges[0].EarnedAt.IsZero())

	assert.True(t, u.RemoveBadge(b1.BadgeID, now))
	assert.Equal(t, int64(1), u.Stats.BadgesCount)
	assert.False(t, u.HasBadge(b1.BadgeID))

	_, err := u.AddBadge(EarnedBadge{}, now)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestUserRef(t *testing.T) {
	u := NewUser("a@b.c", "ana", "")
	u.ID = bson.NewObjectID()
	u.SetProfile(" Ana B ", "", "https://img/a.png", Now())

	ref := u.Ref()
	assert.Equal(t, u.ID, ref.ID)
	assert.Equal(t, "Ana B", ref.DisplayName)
	assert.Equal(t, "https://img/a.png", ref.AvatarURL)
}

func TestFollowRejectsSelf(t *testing.T) {
	a := testUser("ana")
	_, err := NewFollow(a, a)
	assert.ErrorIs(t, err, ErrSelfFollow)

	f, err := NewFollow(a, testUser("ben"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, f.FollowerID)
}
