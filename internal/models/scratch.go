package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Scratch is a user's rating (and optional review) of an album. Comments on a
// scratch live in the comments collection, so CommentsCount is maintained by
// the comment flow rather than recomputed from an embedded list.
type Scratch struct {
	SoftDeleteDocument `bson:",inline"`
	Author             UserRef         `bson:"author" json:"author"`
	Album              AlbumRef        `bson:"album" json:"album"`
	Rating             int             `bson:"rating" json:"rating"`
	Review             string          `bson:"review,omitempty" json:"review,omitempty"`
	Tags               []string        `bson:"tags" json:"tags"`
	LikedBy            []bson.ObjectID `bson:"likedBy" json:"-"`
	ListenedAt         *time.Time      `bson:"listenedAt,omitempty" json:"listened_at,omitempty"`
	Stats              ScratchStats    `bson:"stats" json:"stats"`
}

func NewScratch(author UserRef, album AlbumRef, rating int) (*Scratch, error) {
	if author.ID.IsZero() || album.ID.IsZero() {
		return nil, ErrInvalidReference
	}
	if rating < 0 || rating > 10 {
		return nil, ErrRatingOutOfRange
	}
	return &Scratch{
		Author:  author,
		Album:   album,
		Rating:  rating,
		Tags:    []string{},
		LikedBy: []bson.ObjectID{},
	}, nil
}

func (s *Scratch) SetAuthor(author UserRef, now time.Time) error {
	if author.ID.IsZero() {
		return ErrInvalidReference
	}
	s.Author = author
	s.Touch(now)
	return nil
}

func (s *Scratch) SetAlbum(album AlbumRef, now time.Time) error {
	if album.ID.IsZero() {
		return ErrInvalidReference
	}
	s.Album = album
	s.Touch(now)
	return nil
}

// SetRating returns the previous rating so callers can adjust album
// aggregates.
func (s *Scratch) SetRating(rating int, now time.Time) (int, error) {
	if rating < 0 || rating > 10 {
		return s.Rating, ErrRatingOutOfRange
	}
	prev := s.Rating
	s.Rating = rating
	s.Touch(now)
	return prev, nil
}

func (s *Scratch) SetReview(review string, now time.Time) {
	s.Review = strings.TrimSpace(review)
	s.Touch(now)
}

func (s *Scratch) AddTag(tag string, now time.Time) (bool, error) {
	t := NormalizeTag(tag)
	if t == "" {
		return false, ErrBlankText
	}
	var added bool
	s.Tags, added = addUnique(s.Tags, t)
	if added {
		s.Touch(now)
	}
	return added, nil
}

func (s *Scratch) Like(userID bson.ObjectID, now time.Time) bool {
	var added bool
	s.LikedBy, added = addID(s.LikedBy, userID)
	if added {
		s.Stats.LikesCount = int64(len(s.LikedBy))
		s.Touch(now)
	}
	return added
}

func (s *Scratch) Unlike(userID bson.ObjectID, now time.Time) bool {
	var removed bool
	s.LikedBy, removed = removeID(s.LikedBy, userID)
	if removed {
		s.Stats.LikesCount = int64(len(s.LikedBy))
		s.Touch(now)
	}
	return removed
}

// IncrementComments and DecrementComments keep Stats.CommentsCount in step
// with the comments collection. They are used only by the comment flow.
func (s *Scratch) IncrementComments(now time.Time) {
	s.Stats.CommentsCount++
	s.Touch(now)
}

func (s *Scratch) DecrementComments(now time.Time) {
	if s.Stats.CommentsCount == 0 {
		return
	}
	s.Stats.CommentsCount--
	s.Touch(now)
}
