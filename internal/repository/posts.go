package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ScoredPost is a post with its text-search relevance.
type ScoredPost struct {
	models.Post `bson:",inline"`
	Score       float64 `bson:"score" json:"score"`
}

type PostStore struct {
	*Repository[models.Post, *models.Post]
}

func NewPostStore(db *database.Context, opts ...Option) *PostStore {
	return &PostStore{New[models.Post](db, opts...)}
}

// Feed pages live posts by the given authors, newest first. A nil slice
// means the global feed.
func (s *PostStore) Feed(ctx context.Context, authorIDs []bson.ObjectID, skip, limit int64) (*Page[*models.Post], error) {
	filter := query.NotDeleted()
	if authorIDs != nil {
		filter = query.And(filter, query.In("author.id", authorIDs))
	}
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("createdAt")), skip, limit)
}

func (s *PostStore) ByAuthor(ctx context.Context, authorID bson.ObjectID, skip, limit int64) (*Page[*models.Post], error) {
	filter := query.And(query.NotDeleted(), query.Eq("author.id", authorID))
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("createdAt")), skip, limit)
}

func (s *PostStore) ByTag(ctx context.Context, tag string, skip, limit int64) (*Page[*models.Post], error) {
	filter := query.And(query.NotDeleted(), query.Eq("tags", models.NormalizeTag(tag)))
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("createdAt")), skip, limit)
}

// Search runs a relevance-ranked text search over live posts.
func (s *PostStore) Search(ctx context.Context, term string, limit int64) ([]ScoredPost, error) {
	return AggregateInto[ScoredPost](ctx, s, query.TextSearchWithScore(term, query.NotDeleted(), limit))
}

// TrendingTags counts tag use on live posts created since the given time.
func (s *PostStore) TrendingTags(ctx context.Context, since time.Time, limit int64) ([]query.GroupCount, error) {
	match := query.And(query.NotDeleted(), query.DateRange("createdAt", &since, nil))
	return AggregateInto[query.GroupCount](ctx, s, query.UnwindGroupByCount(match, "tags", limit))
}

// Activity buckets an author's posts over time.
func (s *PostStore) Activity(ctx context.Context, authorID bson.ObjectID, unit query.Bucket, from, to *time.Time) ([]query.TimeBucket, error) {
	match := query.And(query.NotDeleted(), query.Eq("author.id", authorID), query.DateRange("createdAt", from, to))
	return AggregateInto[query.TimeBucket](ctx, s, query.TimeBuckets(match, "createdAt", unit))
}

func (s *PostStore) CountByAuthor(ctx context.Context, authorID bson.ObjectID) (int64, error) {
	return s.Count(ctx, query.And(query.NotDeleted(), query.Eq("author.id", authorID)))
}
