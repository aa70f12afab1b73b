package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func provisioned(t *testing.T) *repository.Stores {
	t.Helper()
	db := testutil.DB(t)
	require.NoError(t, db.EnsureIndexes(context.Background(), database.IndexPlan()))
	return repository.NewStores(db)
}

func TestUserStoreLookupsAndCounters(t *testing.T) {
	ctx := context.Background()
	stores := provisioned(t)

	u, err := stores.Users.Create(ctx, models.NewUser(" Ana@Example.com ", "AnaB", "hash"))
	require.NoError(t, err)

	byEmail, err := stores.Users.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := stores.Users.GetByUsername(ctx, "anab")
	require.NoError(t, err)
	require.NotNil(t, byName)

	taken, err := stores.Users.UsernameTaken(ctx, "a.ab")
	require.NoError(t, err)
	assert.False(t, taken)

	out, err := stores.Users.IncrementStat(ctx, u.ID, repository.StatFollowers, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Stats.FollowersCount)

	out, err = stores.Users.IncrementStat(ctx, u.ID, repository.StatFollowers, -1)
	require.NoError(t, err)
	assert.Zero(t, out.Stats.FollowersCount)

	floored, err := stores.Users.IncrementStat(ctx, u.ID, repository.StatFollowers, -1)
	require.NoError(t, err)
	assert.Nil(t, floored)

	page, err := stores.Users.Search(ctx, "nab", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestScratchStoreAggregations(t *testing.T) {
	ctx := context.Background()
	stores := provisioned(t)
	alb := album()

	for _, r := range []int{8, 8, 6, 10} {
		s, err := models.NewScratch(author(), alb, r)
		require.NoError(t, err)
		_, err = stores.Scratches.Create(ctx, s)
		require.NoError(t, err)
	}
	other, err := stores.Scratches.Create(ctx, newScratch(t, 1))
	require.NoError(t, err)

	dist, err := stores.Scratches.RatingDistribution(ctx, alb.ID)
	require.NoError(t, err)
	require.Len(t, dist, 3)
	assert.EqualValues(t, 8, dist[0].Key)
	assert.Equal(t, int64(2), dist[0].Count)

	summary, err := stores.Scratches.RatingSummary(ctx, alb.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.Count)
	assert.InDelta(t, 8.0, summary.Average, 0.001)

	empty, err := stores.Scratches.RatingSummary(ctx, bson.NewObjectID())
	require.NoError(t, err)
	assert.Zero(t, empty.Count)

	buckets, err := stores.Scratches.Activity(ctx, other.Author.ID, query.BucketDay, nil, nil)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, int64(1), buckets[0].Count)

	page, err := stores.Scratches.ByAlbum(ctx, alb.ID, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.True(t, page.HasNextPage)
}

func TestNotificationStoreReadState(t *testing.T) {
	ctx := context.Background()
	stores := provisioned(t)
	recipient := bson.NewObjectID()
	now := models.Now()

	var ids []bson.ObjectID
	for i := 0; i < 3; i++ {
		n, err := models.NewNotification(recipient, models.NotificationLike, "liked your scratch", time.Hour, now)
		require.NoError(t, err)
		_, err = stores.Notifications.Create(ctx, n)
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	unread, err := stores.Notifications.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	read, err := stores.Notifications.MarkRead(ctx, recipient, ids[0], now)
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.True(t, read.IsRead)

	again, err := stores.Notifications.MarkRead(ctx, recipient, ids[0], now)
	require.NoError(t, err)
	assert.Nil(t, again)

	foreign, err := stores.Notifications.MarkRead(ctx, bson.NewObjectID(), ids[1], now)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	n, err := stores.Notifications.MarkAllRead(ctx, recipient, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = stores.Notifications.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestTagStoreUsage(t *testing.T) {
	ctx := context.Background()
	stores := provisioned(t)
	now := models.Now()

	require.NoError(t, stores.Tags.Use(ctx, []string{"#Jazz", "bebop", " "}, now))
	require.NoError(t, stores.Tags.Use(ctx, []string{"jazz"}, now))

	jazz, err := stores.Tags.GetByName(ctx, "JAZZ")
	require.NoError(t, err)
	require.NotNil(t, jazz)
	assert.Equal(t, int64(2), jazz.UsageCount)
	assert.False(t, jazz.CreatedAt.IsZero())

	trending, err := stores.Tags.Trending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, "jazz", trending[0].Name)

	released, err := stores.Tags.Release(ctx, []string{"bebop", "bebop"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)
	released, err = stores.Tags.Release(ctx, []string{"bebop"})
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestFollowStore(t *testing.T) {
	ctx := context.Background()
	stores := provisioned(t)
	a, b := testUserRef("a"), testUserRef("b")

	f, err := models.NewFollow(a, b)
	require.NoError(t, err)
	_, err = stores.Follows.Create(ctx, f)
	require.NoError(t, err)

	dup, err := models.NewFollow(a, b)
	require.NoError(t, err)
	_, err = stores.Follows.Create(ctx, dup)
	assert.Error(t, err)

	ok, err := stores.Follows.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := stores.Follows.FolloweeIDs(ctx, a.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{b.ID}, ids)

	removed, err := stores.Follows.Remove(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = stores.Follows.Remove(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostStoreSearchAndTrending(t *testing.T) {
	ctx := context.Background()
	stores := provisioned(t)
	now := models.Now()

	for _, text := range []string{"late night coltrane session", "morning coffee", "coltrane coltrane coltrane"} {
		p, err := models.NewPost(author(), text)
		require.NoError(t, err)
		_, err = p.AddTag("jazz", now)
		require.NoError(t, err)
		_, err = stores.Posts.Create(ctx, p)
		require.NoError(t, err)
	}

	hits, err := stores.Posts.Search(ctx, "coltrane", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

	tags, err := stores.Posts.TrendingTags(ctx, now.Add(-time.Hour), 5)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "jazz", tags[0].Key)
	assert.Equal(t, int64(3), tags[0].Count)
}

func TestRefreshTokenConsumedOnce(t *testing.T) {
	ctx := context.Background()
	stores := provisioned(t)
	now := models.Now()

	tok := &models.RefreshToken{UserID: bson.NewObjectID(), TokenHash: "h1", FamilyID: "f", ExpiresAt: now.Add(time.Hour)}
	_, err := stores.RefreshTokens.Create(ctx, tok)
	require.NoError(t, err)

	first, err := stores.RefreshTokens.Consume(ctx, "h1", now)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.Revoked)

	second, err := stores.RefreshTokens.Consume(ctx, "h1", now)
	require.NoError(t, err)
	assert.Nil(t, second)

	unknown, err := stores.RefreshTokens.Consume(ctx, "nope", now)
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func testUserRef(name string) models.UserRef {
	return models.UserRef{ID: bson.NewObjectID(), Username: name}
}
