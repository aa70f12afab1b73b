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

type ArtistStore struct {
	*Repository[models.Artist, *models.Artist]
}

func NewArtistStore(db *database.Context, opts ...Option) *ArtistStore {
	return &ArtistStore{New[models.Artist](db, opts...)}
}

func (s *ArtistStore) GetByExternalID(ctx context.Context, externalID string) (*models.Artist, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, nil
	}
	return s.FindOne(ctx, query.Eq("externalId", externalID))
}

func (s *ArtistStore) Search(ctx context.Context, term string, skip, limit int64) (*Page[*models.Artist], error) {
	return s.Paginate(ctx, query.TextSearch(term, "name"), query.StableSort(query.Asc("name")), skip, limit)
}

type TrackStore struct {
	*Repository[models.Track, *models.Track]
}

func NewTrackStore(db *database.Context, opts ...Option) *TrackStore {
	return &TrackStore{New[models.Track](db, opts...)}
}

func (s *TrackStore) GetByExternalID(ctx context.Context, externalID string) (*models.Track, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, nil
	}
	return s.FindOne(ctx, query.Eq("externalId", externalID))
}

// ByAlbum lists an album's tracks in track-number order.
func (s *TrackStore) ByAlbum(ctx context.Context, albumID bson.ObjectID) ([]*models.Track, error) {
	opts := options.Find().SetSort(query.Sort(query.Asc("trackNumber")))
	return s.Find(ctx, query.Eq("album.id", albumID), opts)
}

type GenreStore struct {
	*Repository[models.Genre, *models.Genre]
}

func NewGenreStore(db *database.Context, opts ...Option) *GenreStore {
	return &GenreStore{New[models.Genre](db, opts...)}
}

func (s *GenreStore) GetBySlug(ctx context.Context, slug string) (*models.Genre, error) {
	return s.FindOne(ctx, query.Eq("slug", models.Slugify(slug)))
}

// Ensure returns the genre with the name's slug, creating it if needed.
func (s *GenreStore) Ensure(ctx context.Context, name string) (*models.Genre, error) {
	g := models.NewGenre(name)
	if g.Slug == "" {
		return nil, models.ErrBlankText
	}
	return s.UpsertFields(ctx, query.Eq("slug", g.Slug), nil, bson.M{"name": g.Name})
}

// Children lists the direct sub-genres of a genre.
func (s *GenreStore) Children(ctx context.Context, parentID bson.ObjectID) ([]*models.Genre, error) {
	opts := options.Find().SetSort(query.Sort(query.Asc("name")))
	return s.Find(ctx, query.Eq("parentId", parentID), opts)
}
