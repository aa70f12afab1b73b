package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type TagStore struct {
	*Repository[models.Tag, *models.Tag]
}

func NewTagStore(db *database.Context, opts ...Option) *TagStore {
	return &TagStore{New[models.Tag](db, opts...)}
}

// Use records one more use of each tag, creating missing ones.
func (s *TagStore) Use(ctx context.Context, names []string, now time.Time) error {
	for _, raw := range names {
		name := models.NormalizeTag(raw)
		if name == "" {
			continue
		}
		u := query.Increment("usageCount", 1).Set("lastUsedAt", now.UTC().Truncate(time.Millisecond))
		if _, err := s.UpsertFields(ctx, query.Eq("name", name), u, nil); err != nil {
			return err
		}
	}
	return nil
}

// Release records one fewer use of each tag, never going below zero.
func (s *TagStore) Release(ctx context.Context, names []string) (int64, error) {
	normalized := make([]string, 0, len(names))
	for _, n := range names {
		if t := models.NormalizeTag(n); t != "" {
			normalized = append(normalized, t)
		}
	}
	if len(normalized) == 0 {
		return 0, nil
	}
	filter := query.And(query.In("name", normalized), bson.M{"usageCount": bson.M{"$gt": 0}})
	return s.UpdateMany(ctx, filter, query.Increment("usageCount", -1))
}

func (s *TagStore) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	return s.FindOne(ctx, query.Eq("name", models.NormalizeTag(name)))
}

// Trending returns the most used tags, most recently used first on ties.
func (s *TagStore) Trending(ctx context.Context, limit int64) ([]*models.Tag, error) {
	opts := options.Find().
		SetSort(query.Sort(query.Desc("usageCount"), query.Desc("lastUsedAt"))).
		SetLimit(limit)
	return s.Find(ctx, bson.M{"usageCount": bson.M{"$gt": 0}}, opts)
}
