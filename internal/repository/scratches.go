package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// RatingSummary is the live average over an album's scratches.
type RatingSummary struct {
	Count   int64   `bson:"count" json:"count"`
	Average float64 `bson:"average" json:"average"`
}

type ScratchStore struct {
	*Repository[models.Scratch, *models.Scratch]
}

func NewScratchStore(db *database.Context, opts ...Option) *ScratchStore {
	return &ScratchStore{New[models.Scratch](db, opts...)}
}

func (s *ScratchStore) ByAlbum(ctx context.Context, albumID bson.ObjectID, skip, limit int64) (*Page[*models.Scratch], error) {
	filter := query.And(query.NotDeleted(), query.Eq("album.id", albumID))
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("createdAt")), skip, limit)
}

func (s *ScratchStore) ByAuthor(ctx context.Context, authorID bson.ObjectID, skip, limit int64) (*Page[*models.Scratch], error) {
	filter := query.And(query.NotDeleted(), query.Eq("author.id", authorID))
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("createdAt")), skip, limit)
}

// RatingDistribution counts live scratches of an album per rating value,
// most common first.
func (s *ScratchStore) RatingDistribution(ctx context.Context, albumID bson.ObjectID) ([]query.GroupCount, error) {
	match := query.And(query.NotDeleted(), query.Eq("album.id", albumID))
	return AggregateInto[query.GroupCount](ctx, s, query.GroupByCount(match, "rating"))
}

// RatingSummary recomputes an album's average from its live scratches.
func (s *ScratchStore) RatingSummary(ctx context.Context, albumID bson.ObjectID) (RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: query.And(query.NotDeleted(), query.Eq("album.id", albumID))}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}
	rows, err := AggregateInto[RatingSummary](ctx, s, pipeline)
	if err != nil || len(rows) == 0 {
		return RatingSummary{}, err
	}
	return rows[0], nil
}

// Activity buckets an author's scratches over time.
func (s *ScratchStore) Activity(ctx context.Context, authorID bson.ObjectID, unit query.Bucket, from, to *time.Time) ([]query.TimeBucket, error) {
	match := query.And(query.NotDeleted(), query.Eq("author.id", authorID), query.DateRange("createdAt", from, to))
	return AggregateInto[query.TimeBucket](ctx, s, query.TimeBuckets(match, "createdAt", unit))
}

// ByAuthorAndAlbum returns the author's live scratch of an album, if any.
func (s *ScratchStore) ByAuthorAndAlbum(ctx context.Context, authorID, albumID bson.ObjectID) (*models.Scratch, error) {
	return s.FindOne(ctx, query.And(query.NotDeleted(), query.Eq("author.id", authorID), query.Eq("album.id", albumID)))
}
