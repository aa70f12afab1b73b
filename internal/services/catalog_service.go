package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const topRatedMinimum = 3

// CatalogService imports albums from the external catalog and serves the
// local copies.
type CatalogService struct {
	db     *database.Context
	stores *repository.Stores
	client catalog.Client
	now    func() time.Time
}

// NewCatalogService accepts a nil client; imports then fail with
// catalog.ErrCatalogUnavailable while reads keep working.
func NewCatalogService(db *database.Context, stores *repository.Stores, client catalog.Client) *CatalogService {
	return &CatalogService{db: db, stores: stores, client: client, now: models.Now}
}

// ImportAlbum copies an album with its artist, tracks and genres into the
// store. Reimporting refreshes metadata and the track listing but keeps
// ratings, tags and other accumulated stats.
func (s *CatalogService) ImportAlbum(ctx context.Context, externalID string) (*models.Album, error) {
	if s.client == nil {
		return nil, catalog.ErrCatalogUnavailable
	}
	ext, err := s.client.Album(ctx, externalID)
	if errors.Is(err, catalog.ErrUnknownAlbum) {
		return nil, ErrAlbumNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch album %s: %w", externalID, err)
	}

	genres := make([]*models.Genre, 0, len(ext.Genres))
	for _, name := range ext.Genres {
		g, err := s.stores.Genres.Ensure(ctx, name)
		if errors.Is(err, models.ErrBlankText) {
			continue
		}
		if err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}

	var album *models.Album
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		artist, err := s.importArtist(ctx, ext.Artist)
		if err != nil {
			return err
		}
		a, err := s.importAlbum(ctx, ext, artist, genres)
		if err != nil {
			return err
		}
		album = a
		return s.recountArtist(ctx, artist.ID)
	})
	if err != nil {
		return nil, err
	}

	for _, g := range genres {
		n, err := s.stores.Albums.Count(ctx, query.Eq("genres", strings.ToLower(g.Name)))
		if err != nil {
			return nil, err
		}
		if _, err := s.stores.Genres.UpdatePartial(ctx, g.ID, query.NewUpdate().Set("stats.albumsCount", n)); err != nil {
			return nil, err
		}
	}
	return album, nil
}

func (s *CatalogService) importArtist(ctx context.Context, ext catalog.Artist) (*models.Artist, error) {
	filter := query.Eq("externalId", ext.ExternalID)
	if ext.ExternalID == "" {
		filter = query.Eq("name", strings.TrimSpace(ext.Name))
	}
	artist, err := s.stores.Artists.FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if artist == nil {
		artist = models.NewArtist(ext.Name)
	}
	if err := artist.SetProfile(ext.Name, artist.Bio, ext.ImageURL, now); err != nil {
		return nil, err
	}
	artist.ExternalID = ext.ExternalID
	for _, g := range ext.Genres {
		if _, err := artist.AddGenre(g, now); err != nil && !errors.Is(err, models.ErrBlankText) {
			return nil, err
		}
	}
	return s.stores.Artists.Upsert(ctx, filter, artist)
}

func (s *CatalogService) importAlbum(ctx context.Context, ext *catalog.Album, artist *models.Artist, genres []*models.Genre) (*models.Album, error) {
	now := s.now()
	album, err := s.stores.Albums.GetByExternalID(ctx, ext.ExternalID)
	if err != nil {
		return nil, err
	}
	if album == nil {
		album = models.NewAlbum(ext.Title, artist.Ref())
	}
	if err := album.SetArtist(artist.Ref(), now); err != nil {
		return nil, err
	}
	for _, t := range append([]models.AlbumTrack(nil), album.Tracks...) {
		if err := album.RemoveTrack(t.ID, now); err != nil {
			return nil, err
		}
	}
	album.ExternalID = ext.ExternalID
	album.Title = strings.TrimSpace(ext.Title)
	album.CoverURL = ext.CoverURL
	album.ReleaseDate = ext.ReleaseDate
	album.Label = ext.Label
	for _, g := range genres {
		if _, err := album.AddGenre(g.Name, now); err != nil {
			return nil, err
		}
	}
	if album, err = s.stores.Albums.Upsert(ctx, query.Eq("externalId", ext.ExternalID), album); err != nil {
		return nil, err
	}

	for _, et := range ext.Tracks {
		track, err := s.importTrack(ctx, et, artist, album)
		if err != nil {
			return nil, err
		}
		if _, err := album.AddTrack(track.Title, track.TrackNumber, track.DurationMs, track.ID, now); err != nil {
			return nil, err
		}
	}
	if err := s.stores.Albums.Update(ctx, album); err != nil {
		return nil, err
	}
	return album, nil
}

func (s *CatalogService) importTrack(ctx context.Context, ext catalog.Track, artist *models.Artist, album *models.Album) (*models.Track, error) {
	now := s.now()
	filter := query.Eq("externalId", ext.ExternalID)
	if ext.ExternalID == "" {
		filter = query.And(query.Eq("album.id", album.ID), query.Eq("trackNumber", ext.TrackNumber))
	}
	track, err := s.stores.Tracks.FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	if track == nil {
		track = models.NewTrack(ext.Title, artist.Ref(), ext.DurationMs)
	}
	if err := track.SetArtist(artist.Ref(), now); err != nil {
		return nil, err
	}
	if err := track.SetAlbum(album.Ref(), ext.TrackNumber, now); err != nil {
		return nil, err
	}
	track.ExternalID = ext.ExternalID
	track.Title = strings.TrimSpace(ext.Title)
	track.DurationMs = ext.DurationMs
	track.Explicit = ext.Explicit
	track.PreviewURL = ext.PreviewURL
	for _, g := range album.Genres {
		if _, err := track.AddGenre(g, now); err != nil {
			return nil, err
		}
	}
	return s.stores.Tracks.Upsert(ctx, filter, track)
}

func (s *CatalogService) recountArtist(ctx context.Context, artistID bson.ObjectID) error {
	albums, err := s.stores.Albums.Count(ctx, query.Eq("artist.id", artistID))
	if err != nil {
		return err
	}
	tracks, err := s.stores.Tracks.Count(ctx, query.Eq("artist.id", artistID))
	if err != nil {
		return err
	}
	u := query.NewUpdate().Set("stats.albumsCount", albums).Set("stats.tracksCount", tracks)
	_, err = s.stores.Artists.UpdatePartial(ctx, artistID, u)
	return err
}

func (s *CatalogService) Album(ctx context.Context, albumHex string) (*models.Album, error) {
	id, err := parseID(albumHex, ErrAlbumNotFound)
	if err != nil {
		return nil, err
	}
	return load(ctx, s.stores.Albums.Repository, id, ErrAlbumNotFound)
}

func (s *CatalogService) AlbumTracks(ctx context.Context, albumHex string) ([]*models.Track, error) {
	id, err := parseID(albumHex, ErrAlbumNotFound)
	if err != nil {
		return nil, err
	}
	return s.stores.Tracks.ByAlbum(ctx, id)
}

func (s *CatalogService) SearchAlbums(ctx context.Context, term string, limit int64) ([]repository.ScoredAlbum, error) {
	_, limit = Bounds(0, limit)
	return s.stores.Albums.Search(ctx, term, limit)
}

func (s *CatalogService) AlbumsByGenre(ctx context.Context, genre string, skip, limit int64) (*repository.Page[*models.Album], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Albums.ByGenre(ctx, genre, skip, limit)
}

func (s *CatalogService) AlbumsByArtist(ctx context.Context, artistHex string, skip, limit int64) (*repository.Page[*models.Album], error) {
	id, err := parseID(artistHex, ErrArtistNotFound)
	if err != nil {
		return nil, err
	}
	skip, limit = Bounds(skip, limit)
	return s.stores.Albums.ByArtist(ctx, id, skip, limit)
}

func (s *CatalogService) SearchArtists(ctx context.Context, term string, skip, limit int64) (*repository.Page[*models.Artist], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Artists.Search(ctx, term, skip, limit)
}

func (s *CatalogService) TopRated(ctx context.Context, limit int64) ([]*models.Album, error) {
	_, limit = Bounds(0, limit)
	return s.stores.Albums.TopRated(ctx, topRatedMinimum, limit)
}

func (s *CatalogService) GenreBreakdown(ctx context.Context, limit int64) ([]query.GroupCount, error) {
	_, limit = Bounds(0, limit)
	return s.stores.Albums.GenreBreakdown(ctx, limit)
}

func (s *CatalogService) AddedOverTime(ctx context.Context, unit string) ([]query.TimeBucket, error) {
	b, err := parseBucket(unit)
	if err != nil {
		return nil, err
	}
	return s.stores.Albums.AddedOverTime(ctx, b)
}

func (s *CatalogService) Genre(ctx context.Context, slug string) (*models.Genre, []*models.Genre, error) {
	g, err := s.stores.Genres.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ErrGenreNotFound
	}
	children, err := s.stores.Genres.Children(ctx, g.ID)
	return g, children, err
}

func (s *CatalogService) TrendingTags(ctx context.Context, limit int64) ([]*models.Tag, error) {
	_, limit = Bounds(0, limit)
	return s.stores.Tags.Trending(ctx, limit)
}
