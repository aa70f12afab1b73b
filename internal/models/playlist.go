package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PlaylistTrack is an ordered entry. Positions are dense and 1-based.
type PlaylistTrack struct {
	ID       bson.ObjectID `bson:"id" json:"id"`
	Track    TrackRef      `bson:"track" json:"track"`
	Position int           `bson:"position" json:"position"`
	AddedBy  bson.ObjectID `bson:"addedBy" json:"added_by"`
	AddedAt  time.Time     `bson:"addedAt" json:"added_at"`
}

type Playlist struct {
	SoftDeleteDocument `bson:",inline"`
	Owner              UserRef         `bson:"owner" json:"owner"`
	Name               string          `bson:"name" json:"name"`
	Description        string          `bson:"description,omitempty" json:"description,omitempty"`
	CoverURL           string          `bson:"coverUrl,omitempty" json:"cover_url,omitempty"`
	IsPublic           bool            `bson:"isPublic" json:"is_public"`
	Tags               []string        `bson:"tags" json:"tags"`
	Tracks             []PlaylistTrack `bson:"tracks" json:"tracks"`
	Stats              PlaylistStats   `bson:"stats" json:"stats"`
}

func NewPlaylist(owner UserRef, name string, public bool) (*Playlist, error) {
	n, err := cleanText(name)
	if err != nil {
		return nil, err
	}
	if owner.ID.IsZero() {
		return nil, ErrInvalidReference
	}
	return &Playlist{
		Owner:    owner,
		Name:     n,
		IsPublic: public,
		Tags:     []string{},
		Tracks:   []PlaylistTrack{},
	}, nil
}

func (p *Playlist) SetOwner(owner UserRef, now time.Time) error {
	if owner.ID.IsZero() {
		return ErrInvalidReference
	}
	p.Owner = owner
	p.Touch(now)
	return nil
}

func (p *Playlist) Rename(name, description string, now time.Time) error {
	n, err := cleanText(name)
	if err != nil {
		return err
	}
	p.Name = n
	p.Description = strings.TrimSpace(description)
	p.Touch(now)
	return nil
}

func (p *Playlist) SetVisibility(public bool, now time.Time) {
	if p.IsPublic == public {
		return
	}
	p.IsPublic = public
	p.Touch(now)
}

func (p *Playlist) AddTag(tag string, now time.Time) (bool, error) {
	t := NormalizeTag(tag)
	if t == "" {
		return false, ErrBlankText
	}
	var added bool
	p.Tags, added = addUnique(p.Tags, t)
	if added {
		p.Touch(now)
	}
	return added, nil
}

// AddTrack appends the track at position N+1. The same track may appear more
// than once.
func (p *Playlist) AddTrack(track TrackRef, addedBy bson.ObjectID, now time.Time) (*PlaylistTrack, error) {
	if track.ID.IsZero() {
		return nil, ErrInvalidReference
	}
	p.Tracks = append(p.Tracks, PlaylistTrack{
		ID:       bson.NewObjectID(),
		Track:    track,
		Position: len(p.Tracks) + 1,
		AddedBy:  addedBy,
		AddedAt:  now.UTC(),
	})
	p.recount()
	p.Touch(now)
	return &p.Tracks[len(p.Tracks)-1], nil
}

// RemoveTrack drops an entry and renumbers the remaining ones 1..N.
func (p *Playlist) RemoveTrack(entryID bson.ObjectID, now time.Time) error {
	idx := p.indexOf(entryID)
	if idx < 0 {
		return ErrChildNotFound
	}
	p.Tracks = append(p.Tracks[:idx:idx], p.Tracks[idx+1:]...)
	p.renumber()
	p.recount()
	p.Touch(now)
	return nil
}

// MoveTrack moves an entry to the 1-based position and renumbers.
func (p *Playlist) MoveTrack(entryID bson.ObjectID, position int, now time.Time) error {
	idx := p.indexOf(entryID)
	if idx < 0 {
		return ErrChildNotFound
	}
	if position < 1 || position > len(p.Tracks) {
		return ErrPositionOutOfRange
	}
	if idx == position-1 {
		return nil
	}
	entry := p.Tracks[idx]
	rest := append(p.Tracks[:idx:idx], p.Tracks[idx+1:]...)
	target := position - 1
	moved := make([]PlaylistTrack, 0, len(p.Tracks))
	moved = append(moved, rest[:target]...)
	moved = append(moved, entry)
	moved = append(moved, rest[target:]...)
	p.Tracks = moved
	p.renumber()
	p.Touch(now)
	return nil
}

func (p *Playlist) indexOf(entryID bson.ObjectID) int {
	for i, t := range p.Tracks {
		if t.ID == entryID {
			return i
		}
	}
	return -1
}

func (p *Playlist) renumber() {
	for i := range p.Tracks {
		p.Tracks[i].Position = i + 1
	}
}

func (p *Playlist) recount() {
	var total int64
	for _, t := range p.Tracks {
		total += t.Track.DurationMs
	}
	p.Stats.TrackCount = int64(len(p.Tracks))
	p.Stats.TotalDurationMs = total
}
