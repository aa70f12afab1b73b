package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AlbumTrack is a track listing embedded in an album.
type AlbumTrack struct {
	ID          bson.ObjectID `bson:"id" json:"id"`
	TrackID     bson.ObjectID `bson:"trackId,omitempty" json:"track_id,omitempty"`
	Title       string        `bson:"title" json:"title"`
	TrackNumber int           `bson:"trackNumber" json:"track_number"`
	DurationMs  int64         `bson:"durationMs" json:"duration_ms"`
}

// Album embeds its track listing; Stats.TrackCount and TotalDurationMs are
// always recomputed from Tracks.
type Album struct {
	BaseDocument `bson:",inline"`
	ExternalID   string       `bson:"externalId,omitempty" json:"external_id,omitempty"`
	Title        string       `bson:"title" json:"title"`
	Artist       ArtistRef    `bson:"artist" json:"artist"`
	CoverURL     string       `bson:"coverUrl,omitempty" json:"cover_url,omitempty"`
	ReleaseDate  *time.Time   `bson:"releaseDate,omitempty" json:"release_date,omitempty"`
	Label        string       `bson:"label,omitempty" json:"label,omitempty"`
	Genres       []string     `bson:"genres" json:"genres"`
	Tags         []string     `bson:"tags" json:"tags"`
	Tracks       []AlbumTrack `bson:"tracks" json:"tracks"`
	Stats        AlbumStats   `bson:"stats" json:"stats"`
}

func NewAlbum(title string, artist ArtistRef) *Album {
	return &Album{
		Title:  strings.TrimSpace(title),
		Artist: artist,
		Genres: []string{},
		Tags:   []string{},
		Tracks: []AlbumTrack{},
	}
}

func (a *Album) Ref() AlbumRef {
	ref := AlbumRef{ID: a.ID, Title: a.Title, ArtistName: a.Artist.Name, CoverURL: a.CoverURL}
	if a.ReleaseDate != nil {
		ref.ReleaseYear = a.ReleaseDate.Year()
	}
	return ref
}

func (a *Album) SetArtist(artist ArtistRef, now time.Time) error {
	if artist.ID.IsZero() {
		return ErrInvalidReference
	}
	a.Artist = artist
	a.Touch(now)
	return nil
}

// AddTrack appends a new listing entry on every call and returns it.
func (a *Album) AddTrack(title string, trackNumber int, durationMs int64, trackID bson.ObjectID, now time.Time) (*AlbumTrack, error) {
	t, err := cleanText(title)
	if err != nil {
		return nil, err
	}
	if trackNumber <= 0 {
		trackNumber = len(a.Tracks) + 1
	}
	a.Tracks = append(a.Tracks, AlbumTrack{
		ID:          bson.NewObjectID(),
		TrackID:     trackID,
		Title:       t,
		TrackNumber: trackNumber,
		DurationMs:  durationMs,
	})
	a.recountTracks()
	a.Touch(now)
	return &a.Tracks[len(a.Tracks)-1], nil
}

func (a *Album) RemoveTrack(entryID bson.ObjectID, now time.Time) error {
	for i, t := range a.Tracks {
		if t.ID == entryID {
			a.Tracks = append(a.Tracks[:i:i], a.Tracks[i+1:]...)
			a.recountTracks()
			a.Touch(now)
			return nil
		}
	}
	return ErrChildNotFound
}

func (a *Album) recountTracks() {
	var total int64
	for _, t := range a.Tracks {
		total += t.DurationMs
	}
	a.Stats.TrackCount = int64(len(a.Tracks))
	a.Stats.TotalDurationMs = total
}

func (a *Album) AddGenre(genre string, now time.Time) (bool, error) {
	g, err := cleanText(genre)
	if err != nil {
		return false, err
	}
	var added bool
	a.Genres, added = addUnique(a.Genres, strings.ToLower(g))
	if added {
		a.Touch(now)
	}
	return added, nil
}

func (a *Album) AddTag(tag string, now time.Time) (bool, error) {
	t := NormalizeTag(tag)
	if t == "" {
		return false, ErrBlankText
	}
	var added bool
	a.Tags, added = addUnique(a.Tags, t)
	if added {
		a.Touch(now)
	}
	return added, nil
}

// ApplyRating folds one scratch rating into the running average.
func (a *Album) ApplyRating(rating int, now time.Time) error {
	if rating < 0 || rating > 10 {
		return ErrRatingOutOfRange
	}
	a.Stats.RatingsCount++
	a.Stats.RatingSum += int64(rating)
	a.recomputeAverage()
	a.Touch(now)
	return nil
}

func (a *Album) RetractRating(rating int, now time.Time) error {
	if rating < 0 || rating > 10 {
		return ErrRatingOutOfRange
	}
	if a.Stats.RatingsCount == 0 {
		return nil
	}
	a.Stats.RatingsCount--
	a.Stats.RatingSum -= int64(rating)
	a.recomputeAverage()
	a.Touch(now)
	return nil
}

func (a *Album) recomputeAverage() {
	if a.Stats.RatingsCount <= 0 {
		a.Stats.RatingsCount, a.Stats.RatingSum, a.Stats.AverageRating = 0, 0, 0
		return
	}
	a.Stats.AverageRating = float64(a.Stats.RatingSum) / float64(a.Stats.RatingsCount)
}
