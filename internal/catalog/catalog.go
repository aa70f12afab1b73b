// Package catalog is the boundary to the external music catalog. Albums are
// imported from it into the document store; nothing reads it at request
// time.
package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCatalogUnavailable = errors.New("music catalog is not configured")
	ErrUnknownAlbum       = errors.New("album not found in catalog")
)

type Artist struct {
	ExternalID string
	Name       string
	ImageURL   string
	Genres     []string
}

type Track struct {
	ExternalID  string
	Title       string
	TrackNumber int
	DurationMs  int64
	Explicit    bool
	PreviewURL  string
}

type Album struct {
	ExternalID  string
	Title       string
	Artist      Artist
	CoverURL    string
	ReleaseDate *time.Time
	Label       string
	Genres      []string
	Tracks      []Track
}

// Client fetches album metadata. Implementations return ErrUnknownAlbum for
// ids the catalog does not know.
type Client interface {
	Album(ctx context.Context, externalID string) (*Album, error)
}

// Static serves a fixed set of albums keyed by external id. It backs tests
// and local development.
type Static map[string]*Album

func (s Static) Album(_ context.Context, externalID string) (*Album, error) {
	if a, ok := s[externalID]; ok {
		return a, nil
	}
	return nil, ErrUnknownAlbum
}
