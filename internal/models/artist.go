package models

import (
	"strings"
	"time"
)

// Artist is a catalog aggregate.
type Artist struct {
	BaseDocument `bson:",inline"`
	ExternalID   string      `bson:"externalId,omitempty" json:"external_id,omitempty"`
	Name         string      `bson:"name" json:"name"`
	Bio          string      `bson:"bio,omitempty" json:"bio,omitempty"`
	ImageURL     string      `bson:"imageUrl,omitempty" json:"image_url,omitempty"`
	Genres       []string    `bson:"genres" json:"genres"`
	Stats        ArtistStats `bson:"stats" json:"stats"`
}

func NewArtist(name string) *Artist {
	return &Artist{Name: strings.TrimSpace(name), Genres: []string{}}
}

func (a *Artist) Ref() ArtistRef {
	return ArtistRef{ID: a.ID, Name: a.Name, ImageURL: a.ImageURL}
}

func (a *Artist) SetProfile(name, bio, imageURL string, now time.Time) error {
	n, err := cleanText(name)
	if err != nil {
		return err
	}
	a.Name = n
	a.Bio = strings.TrimSpace(bio)
	a.ImageURL = strings.TrimSpace(imageURL)
	a.Touch(now)
	return nil
}

func (a *Artist) AddGenre(genre string, now time.Time) (bool, error) {
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
