package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type FollowStore struct {
	*Repository[models.Follow, *models.Follow]
}

func NewFollowStore(db *database.Context, opts ...Option) *FollowStore {
	return &FollowStore{New[models.Follow](db, opts...)}
}

func edge(follower, followee bson.ObjectID) bson.M {
	return query.And(query.Eq("followerId", follower), query.Eq("followeeId", followee))
}

func (s *FollowStore) Get(ctx context.Context, follower, followee bson.ObjectID) (*models.Follow, error) {
	return s.FindOne(ctx, edge(follower, followee))
}

func (s *FollowStore) IsFollowing(ctx context.Context, follower, followee bson.ObjectID) (bool, error) {
	return s.Exists(ctx, edge(follower, followee))
}

// Remove deletes the edge and reports whether it existed.
func (s *FollowStore) Remove(ctx context.Context, follower, followee bson.ObjectID) (bool, error) {
	n, err := s.DeleteMany(ctx, edge(follower, followee))
	return n > 0, err
}

func (s *FollowStore) Followers(ctx context.Context, userID bson.ObjectID, skip, limit int64) (*Page[*models.Follow], error) {
	return s.Paginate(ctx, query.Eq("followeeId", userID), query.StableSort(query.Desc("createdAt")), skip, limit)
}

func (s *FollowStore) Following(ctx context.Context, userID bson.ObjectID, skip, limit int64) (*Page[*models.Follow], error) {
	return s.Paginate(ctx, query.Eq("followerId", userID), query.StableSort(query.Desc("createdAt")), skip, limit)
}

// FolloweeIDs returns up to limit ids the user follows, most recent first.
func (s *FollowStore) FolloweeIDs(ctx context.Context, userID bson.ObjectID, limit int64) ([]bson.ObjectID, error) {
	opts := options.Find().
		SetSort(query.Sort(query.Desc("createdAt"))).
		SetLimit(limit).
		SetProjection(bson.M{"followeeId": 1})
	edges, err := s.Find(ctx, query.Eq("followerId", userID), opts)
	if err != nil {
		return nil, err
	}
	ids := make([]bson.ObjectID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.FolloweeID)
	}
	return ids, nil
}

// RemoveAllFor deletes every edge touching the user.
func (s *FollowStore) RemoveAllFor(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return s.DeleteMany(ctx, query.Or(query.Eq("followerId", userID), query.Eq("followeeId", userID)))
}
