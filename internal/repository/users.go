package repository

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Stat fields maintained with atomic increments because their source facts
// live in other collections.
const (
	StatFollowers = "stats.followersCount"
	StatFollowing = "stats.followingCount"
	StatPosts     = "stats.postsCount"
	StatScratches = "stats.scratchesCount"
	StatPlaylists = "stats.playlistsCount"
	StatLikes     = "stats.likesReceived"
)

type UserStore struct {
	*Repository[models.User, *models.User]
}

func NewUserStore(db *database.Context, opts ...Option) *UserStore {
	return &UserStore{New[models.User](db, opts...)}
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.FindOne(ctx, query.Eq("email", strings.ToLower(strings.TrimSpace(email))))
}

// GetByUsername matches case-insensitively.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.FindOne(ctx, query.EqualsIgnoreCase("username", strings.TrimSpace(username)))
}

func (s *UserStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.Exists(ctx, query.Eq("email", strings.ToLower(strings.TrimSpace(email))))
}

func (s *UserStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.Exists(ctx, query.EqualsIgnoreCase("username", strings.TrimSpace(username)))
}

// Search matches term against username and display name, most followed
// first.
func (s *UserStore) Search(ctx context.Context, term string, skip, limit int64) (*Page[*models.User], error) {
	filter := query.TextSearch(term, "username", "displayName")
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("stats.followersCount")), skip, limit)
}

// IncrementStat adjusts one counter and returns the updated user, or nil
// when the user does not exist. Decrements never take a counter below zero.
func (s *UserStore) IncrementStat(ctx context.Context, id bson.ObjectID, field string, by int64) (*models.User, error) {
	if by < 0 {
		return s.UpdateWhere(ctx, id, bson.M{field: bson.M{"$gte": -by}}, query.Increment(field, by))
	}
	return s.UpdatePartial(ctx, id, query.Increment(field, by))
}

// ByIDs loads the users with the given ids, in no particular order.
func (s *UserStore) ByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	return s.Find(ctx, query.In("_id", ids))
}
