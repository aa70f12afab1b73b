package models

import (
	"strings"
	"time"
)

// Track is the standalone track aggregate, referenced by playlists.
type Track struct {
	BaseDocument `bson:",inline"`
	ExternalID   string     `bson:"externalId,omitempty" json:"external_id,omitempty"`
	Title        string     `bson:"title" json:"title"`
	Artist       ArtistRef  `bson:"artist" json:"artist"`
	Album        *AlbumRef  `bson:"album,omitempty" json:"album,omitempty"`
	TrackNumber  int        `bson:"trackNumber" json:"track_number"`
	DurationMs   int64      `bson:"durationMs" json:"duration_ms"`
	Explicit     bool       `bson:"explicit" json:"explicit"`
	PreviewURL   string     `bson:"previewUrl,omitempty" json:"preview_url,omitempty"`
	Genres       []string   `bson:"genres" json:"genres"`
	Stats        TrackStats `bson:"stats" json:"stats"`
}

func NewTrack(title string, artist ArtistRef, durationMs int64) *Track {
	return &Track{Title: strings.TrimSpace(title), Artist: artist, DurationMs: durationMs, Genres: []string{}}
}

func (t *Track) Ref() TrackRef {
	ref := TrackRef{ID: t.ID, Title: t.Title, ArtistName: t.Artist.Name, DurationMs: t.DurationMs}
	if t.Album != nil {
		ref.AlbumTitle = t.Album.Title
	}
	return ref
}

func (t *Track) SetAlbum(album AlbumRef, trackNumber int, now time.Time) error {
	if album.ID.IsZero() {
		return ErrInvalidReference
	}
	t.Album = &album
	t.TrackNumber = trackNumber
	t.Touch(now)
	return nil
}

func (t *Track) SetArtist(artist ArtistRef, now time.Time) error {
	if artist.ID.IsZero() {
		return ErrInvalidReference
	}
	t.Artist = artist
	t.Touch(now)
	return nil
}

func (t *Track) AddGenre(genre string, now time.Time) (bool, error) {
	g, err := cleanText(genre)
	if err != nil {
		return false, err
	}
	var added bool
	t.Genres, added = addUnique(t.Genres, strings.ToLower(g))
	if added {
		t.Touch(now)
	}
	return added, nil
}
