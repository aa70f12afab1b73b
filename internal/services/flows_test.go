package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"
)

type env struct {
	db            *database.Context
	stores        *repository.Stores
	auth          *services.AuthService
	users         *services.UserService
	scratches     *services.ScratchService
	posts         *services.PostService
	playlists     *services.PlaylistService
	notifications *services.NotificationService
	catalog       *services.CatalogService
}

var testAlbum = &catalog.Album{
	ExternalID: "alb-1",
	Title:      "Kind of Blue",
	Artist:     catalog.Artist{ExternalID: "art-1", Name: "Miles Davis", Genres: []string{"Jazz"}},
	Genres:     []string{"Jazz", "Modal"},
	Tracks: []catalog.Track{
		{ExternalID: "trk-1", Title: "So What", TrackNumber: 1, DurationMs: 562000},
		{ExternalID: "trk-2", Title: "Freddie Freeloader", TrackNumber: 2, DurationMs: 589000},
	},
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	testutil.RequireTransactions(t, db)
	require.NoError(t, db.EnsureIndexes(context.Background(), database.IndexPlan()))

	stores := repository.NewStores(db)
	cfg := &config.Config{
		JWTSecret:        "a-test-secret-that-is-long-enough-123",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
	notifications := services.NewNotificationService(stores, time.Hour)
	moderation := services.NewModerationService(stores)
	return &env{
		db:            db,
		stores:        stores,
		auth:          services.NewAuthService(db, stores, cfg),
		users:         services.NewUserService(db, stores, notifications),
		scratches:     services.NewScratchService(db, stores, moderation, notifications),
		posts:         services.NewPostService(db, stores, moderation, notifications),
		playlists:     services.NewPlaylistService(db, stores),
		notifications: notifications,
		catalog:       services.NewCatalogService(db, stores, catalog.Static{"alb-1": testAlbum}),
	}
}

func (e *env) register(t *testing.T, name string) bson.ObjectID {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), &dto.RegisterRequest{
		Email:    name + "@example.com",
		Username: name,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	id, ok := models.ParseID(resp.User.ID)
	require.True(t, ok)
	return id
}

func TestAuthRefreshRotationAndReuse(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	e.register(t, "ana")

	_, err := e.auth.Register(ctx, &dto.RegisterRequest{Email: "ANA@example.com", Username: "other", Password: "correct-horse"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	_, err = e.auth.Login(ctx, &dto.LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	login, err := e.auth.Login(ctx, &dto.LoginRequest{Email: "ana@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)

	rotated, err := e.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// Replaying the rotated token revokes the whole login.
	_, err = e.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, services.ErrInvalidToken)
	_, err = e.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: rotated.RefreshToken})
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestFollowKeepsCountersInStep(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	ana := e.register(t, "ana")
	ben := e.register(t, "ben")

	require.NoError(t, e.users.Follow(ctx, ana, ben.Hex()))
	assert.ErrorIs(t, e.users.Follow(ctx, ana, ben.Hex()), services.ErrAlreadyFollowing)
	assert.ErrorIs(t, e.users.Follow(ctx, ana, ana.Hex()), services.ErrSelfFollow)

	a, err := e.users.Profile(ctx, ana)
	require.NoError(t, err)
	b, err := e.users.Profile(ctx, ben)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Stats.FollowingCount)
	assert.Equal(t, int64(1), b.Stats.FollowersCount)

	unread, err := e.notifications.UnreadCount(ctx, ben)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, e.users.Unfollow(ctx, ana, ben.Hex()))
	assert.ErrorIs(t, e.users.Unfollow(ctx, ana, ben.Hex()), services.ErrNotFollowing)

	b, err = e.users.Profile(ctx, ben)
	require.NoError(t, err)
	assert.Zero(t, b.Stats.FollowersCount)
}

func TestConcurrentFollowsKeepCounters(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	star := e.register(t, "star")
	const fans = 6
	ids := make([]bson.ObjectID, fans)
	for i := range ids {
		ids[i] = e.register(t, fmt.Sprintf("fan%d", i))
	}

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error { return e.users.Follow(ctx, id, star.Hex()) })
	}
	require.NoError(t, g.Wait())

	s, err := e.users.Profile(ctx, star)
	require.NoError(t, err)
	assert.Equal(t, int64(fans), s.Stats.FollowersCount)
	page, err := e.users.Followers(ctx, star, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(fans), page.Total)
	for _, id := range ids {
		u, err := e.users.Profile(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.Stats.FollowingCount)
	}
}

func TestLikesMoveAuthorCounter(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	ana := e.register(t, "ana")
	ben := e.register(t, "ben")

	album, err := e.catalog.ImportAlbum(ctx, "alb-1")
	require.NoError(t, err)
	sc, err := e.scratches.Create(ctx, ana, &dto.CreateScratchRequest{AlbumID: album.ID.Hex(), Rating: 7})
	require.NoError(t, err)
	post, err := e.posts.Create(ctx, ana, &dto.CreatePostRequest{Content: "first pressing"})
	require.NoError(t, err)

	received := func() int64 {
		u, err := e.users.Profile(ctx, ana)
		require.NoError(t, err)
		return u.Stats.LikesReceived
	}

	liked, err := e.scratches.Like(ctx, ben, sc.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), liked.Stats.LikesCount)
	_, err = e.posts.Like(ctx, ben, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(2), received())

	_, err = e.scratches.Like(ctx, ben, sc.ID.Hex())
	assert.ErrorIs(t, err, services.ErrAlreadyLiked)
	_, err = e.posts.Like(ctx, ben, post.ID.Hex())
	assert.ErrorIs(t, err, services.ErrAlreadyLiked)
	assert.Equal(t, int64(2), received())

	unliked, err := e.scratches.Unlike(ctx, ben, sc.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, unliked.Stats.LikesCount)
	_, err = e.posts.Unlike(ctx, ben, post.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, received())

	_, err = e.scratches.Unlike(ctx, ben, sc.ID.Hex())
	assert.ErrorIs(t, err, services.ErrNotLiked)
	_, err = e.posts.Unlike(ctx, ben, post.ID.Hex())
	assert.ErrorIs(t, err, services.ErrNotLiked)
	assert.Zero(t, received())
}

func TestScratchLifecycleUpdatesAlbum(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	ana := e.register(t, "ana")
	ben := e.register(t, "ben")

	album, err := e.catalog.ImportAlbum(ctx, "alb-1")
	require.NoError(t, err)
	assert.Len(t, album.Tracks, 2)

	sc, err := e.scratches.Create(ctx, ana, &dto.CreateScratchRequest{AlbumID: album.ID.Hex(), Rating: 8, Tags: []string{"#Jazz"}})
	require.NoError(t, err)
	_, err = e.scratches.Create(ctx, ana, &dto.CreateScratchRequest{AlbumID: album.ID.Hex(), Rating: 3})
	assert.ErrorIs(t, err, services.ErrAlreadyScratched)
	_, err = e.scratches.Create(ctx, ben, &dto.CreateScratchRequest{AlbumID: album.ID.Hex(), Rating: 6})
	require.NoError(t, err)

	got, err := e.catalog.Album(ctx, album.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Stats.RatingsCount)
	assert.InDelta(t, 7.0, got.Stats.AverageRating, 0.001)
	assert.Equal(t, int64(2), got.Stats.ScratchCount)

	ten := 10
	_, err = e.scratches.Update(ctx, services.Actor{ID: ben}, sc.ID.Hex(), &dto.UpdateScratchRequest{Rating: &ten})
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = e.scratches.Update(ctx, services.Actor{ID: ana}, sc.ID.Hex(), &dto.UpdateScratchRequest{Rating: &ten})
	require.NoError(t, err)

	got, err = e.catalog.Album(ctx, album.ID.Hex())
	require.NoError(t, err)
	assert.InDelta(t, 8.0, got.Stats.AverageRating, 0.001)

	_, err = e.scratches.Like(ctx, ben, sc.ID.Hex())
	require.NoError(t, err)
	_, err = e.scratches.Like(ctx, ben, sc.ID.Hex())
	assert.ErrorIs(t, err, services.ErrAlreadyLiked)

	_, err = e.scratches.Comment(ctx, ben, sc.ID.Hex(), &dto.CommentRequest{Content: "fair"})
	require.NoError(t, err)
	comments, err := e.scratches.Comments(ctx, sc.ID.Hex(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), comments.Total)

	require.NoError(t, e.scratches.Delete(ctx, services.Actor{ID: ana}, sc.ID.Hex()))
	got, err = e.catalog.Album(ctx, album.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stats.RatingsCount)
	assert.InDelta(t, 6.0, got.Stats.AverageRating, 0.001)

	restored, err := e.scratches.Restore(ctx, services.Actor{ID: ana}, sc.ID.Hex())
	require.NoError(t, err)
	assert.False(t, restored.Deleted())

	// Reimporting refreshes the listing without losing ratings.
	again, err := e.catalog.ImportAlbum(ctx, "alb-1")
	require.NoError(t, err)
	assert.Equal(t, album.ID, again.ID)
	assert.Len(t, again.Tracks, 2)
	assert.Equal(t, int64(2), again.Stats.RatingsCount)
}

func TestPostCommentsLikesAndFeed(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	ana := e.register(t, "ana")
	ben := e.register(t, "ben")
	require.NoError(t, e.users.Follow(ctx, ben, ana.Hex()))

	_, err := e.posts.Create(ctx, ana, &dto.CreatePostRequest{Content: "visit www.spam.example.com"})
	assert.ErrorIs(t, err, services.ErrContentRejected)

	post, err := e.posts.Create(ctx, ana, &dto.CreatePostRequest{Content: "Spinning this all week", Tags: []string{"vinyl"}})
	require.NoError(t, err)

	c, err := e.posts.AddComment(ctx, ben, post.ID.Hex(), &dto.CommentRequest{Content: "same"})
	require.NoError(t, err)
	_, err = e.posts.Like(ctx, ben, post.ID.Hex())
	require.NoError(t, err)
	_, err = e.posts.Like(ctx, ben, post.ID.Hex())
	assert.ErrorIs(t, err, services.ErrAlreadyLiked)

	updated, err := e.posts.DeleteComment(ctx, services.Actor{ID: ana}, post.ID.Hex(), c.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, updated.Stats.CommentsCount)
	assert.Equal(t, int64(1), updated.Stats.LikesCount)

	feed, err := e.posts.Feed(ctx, ben, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), feed.Total)
	assert.Equal(t, post.ID, feed.Items[0].ID)

	require.NoError(t, e.posts.Delete(ctx, services.Actor{ID: ana}, post.ID.Hex()))
	feed, err = e.posts.Feed(ctx, ben, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, feed.Total)

	author, err := e.users.Profile(ctx, ana)
	require.NoError(t, err)
	assert.Zero(t, author.Stats.PostsCount)
	assert.Equal(t, int64(1), author.Stats.LikesReceived)
}

func TestPlaylistTracksAndPrivacy(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	ana := e.register(t, "ana")
	ben := e.register(t, "ben")

	album, err := e.catalog.ImportAlbum(ctx, "alb-1")
	require.NoError(t, err)
	tracks, err := e.catalog.AlbumTracks(ctx, album.ID.Hex())
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	p, err := e.playlists.Create(ctx, ana, &dto.CreatePlaylistRequest{Name: "late night"})
	require.NoError(t, err)
	owner := services.Actor{ID: ana}

	for _, tr := range tracks {
		p, err = e.playlists.AddTrack(ctx, owner, p.ID.Hex(), &dto.AddTrackRequest{TrackID: tr.ID.Hex()})
		require.NoError(t, err)
	}
	require.Len(t, p.Tracks, 2)

	p, err = e.playlists.MoveTrack(ctx, owner, p.ID.Hex(), p.Tracks[1].ID.Hex(), &dto.MoveTrackRequest{Position: 1})
	require.NoError(t, err)
	assert.Equal(t, "Freddie Freeloader", p.Tracks[0].Track.Title)
	assert.Equal(t, 1, p.Tracks[0].Position)
	assert.Equal(t, 2, p.Tracks[1].Position)

	_, err = e.playlists.Get(ctx, services.Actor{ID: ben}, p.ID.Hex())
	assert.ErrorIs(t, err, services.ErrPlaylistNotFound)

	track, err := e.stores.Tracks.GetByID(ctx, tracks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), track.Stats.PlaylistCount)
}

func TestNotificationsMarkRead(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	ana := e.register(t, "ana")
	ben := e.register(t, "ben")
	require.NoError(t, e.users.Follow(ctx, ben, ana.Hex()))

	page, err := e.notifications.List(ctx, ana, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	n := page.Items[0]

	_, err = e.notifications.MarkRead(ctx, ben, n.ID.Hex())
	assert.ErrorIs(t, err, services.ErrNotificationNotFound)

	first, err := e.notifications.MarkRead(ctx, ana, n.ID.Hex())
	require.NoError(t, err)
	second, err := e.notifications.MarkRead(ctx, ana, n.ID.Hex())
	require.NoError(t, err)
	assert.True(t, second.IsRead)
	assert.Equal(t, first.ReadAt, second.ReadAt)

	count, err := e.notifications.UnreadCount(ctx, ana)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportWithoutClient(t *testing.T) {
	svc := services.NewCatalogService(nil, nil, nil)
	_, err := svc.ImportAlbum(context.Background(), "alb-1")
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
}
