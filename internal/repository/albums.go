package repository

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ScoredAlbum is an album with its text-search relevance.
type ScoredAlbum struct {
	models.Album `bson:",inline"`
	Score        float64 `bson:"score" json:"score"`
}

type AlbumStore struct {
	*Repository[models.Album, *models.Album]
}

func NewAlbumStore(db *database.Context, opts ...Option) *AlbumStore {
	return &AlbumStore{New[models.Album](db, opts...)}
}

func (s *AlbumStore) GetByExternalID(ctx context.Context, externalID string) (*models.Album, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, nil
	}
	return s.FindOne(ctx, query.Eq("externalId", externalID))
}

// Search ranks albums by text relevance over title and artist name.
func (s *AlbumStore) Search(ctx context.Context, term string, limit int64) ([]ScoredAlbum, error) {
	return AggregateInto[ScoredAlbum](ctx, s, query.TextSearchWithScore(term, nil, limit))
}

func (s *AlbumStore) ByArtist(ctx context.Context, artistID bson.ObjectID, skip, limit int64) (*Page[*models.Album], error) {
	return s.Paginate(ctx, query.Eq("artist.id", artistID), query.StableSort(query.Desc("releaseDate")), skip, limit)
}

func (s *AlbumStore) ByGenre(ctx context.Context, genre string, skip, limit int64) (*Page[*models.Album], error) {
	return s.Paginate(ctx, query.Eq("genres", strings.ToLower(strings.TrimSpace(genre))), query.StableSort(query.Desc("stats.averageRating")), skip, limit)
}

// TopRated returns albums with at least minRatings ratings, best first.
func (s *AlbumStore) TopRated(ctx context.Context, minRatings, limit int64) ([]*models.Album, error) {
	opts := options.Find().
		SetSort(query.StableSort(query.Desc("stats.averageRating"), query.Desc("stats.ratingsCount"))).
		SetLimit(limit)
	return s.Find(ctx, bson.M{"stats.ratingsCount": bson.M{"$gte": minRatings}}, opts)
}

// GenreBreakdown counts albums per genre, most common first.
func (s *AlbumStore) GenreBreakdown(ctx context.Context, limit int64) ([]query.GroupCount, error) {
	return AggregateInto[query.GroupCount](ctx, s, query.UnwindGroupByCount(nil, "genres", limit))
}

// AddedOverTime buckets albums by when they entered the catalog.
func (s *AlbumStore) AddedOverTime(ctx context.Context, unit query.Bucket) ([]query.TimeBucket, error) {
	return AggregateInto[query.TimeBucket](ctx, s, query.TimeBuckets(nil, "createdAt", unit))
}
