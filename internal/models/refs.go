package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	ErrBlankText          = errors.New("text must not be blank")
	ErrRatingOutOfRange   = errors.New("rating must be between 0 and 10")
	ErrChildNotFound      = errors.New("embedded entry not found")
	ErrPositionOutOfRange = errors.New("position out of range")
	ErrInvalidReference   = errors.New("reference has no identity")
)

// UserRef is a display snapshot of a user. It is refreshed only by an explicit
// SetAuthor/SetOwner/SetActor call, never synced from the user document.
type UserRef struct {
	ID          bson.ObjectID `bson:"id" json:"id"`
	Username    string        `bson:"username" json:"username"`
	DisplayName string        `bson:"displayName,omitempty" json:"display_name,omitempty"`
	AvatarURL   string        `bson:"avatarUrl,omitempty" json:"avatar_url,omitempty"`
}

// AlbumRef is a display snapshot of an album.
type AlbumRef struct {
	ID          bson.ObjectID `bson:"id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	ArtistName  string        `bson:"artistName,omitempty" json:"artist_name,omitempty"`
	CoverURL    string        `bson:"coverUrl,omitempty" json:"cover_url,omitempty"`
	ReleaseYear int           `bson:"releaseYear,omitempty" json:"release_year,omitempty"`
}

// ArtistRef is a display snapshot of an artist.
type ArtistRef struct {
	ID       bson.ObjectID `bson:"id" json:"id"`
	Name     string        `bson:"name" json:"name"`
	ImageURL string        `bson:"imageUrl,omitempty" json:"image_url,omitempty"`
}

// TrackRef is a display snapshot of a track.
type TrackRef struct {
	ID         bson.ObjectID `bson:"id" json:"id"`
	Title      string        `bson:"title" json:"title"`
	ArtistName string        `bson:"artistName,omitempty" json:"artist_name,omitempty"`
	AlbumTitle string        `bson:"albumTitle,omitempty" json:"album_title,omitempty"`
	DurationMs int64         `bson:"durationMs" json:"duration_ms"`
}

// TargetType names the aggregate a comment, report or notification points at.
type TargetType string

const (
	TargetUser     TargetType = "user"
	TargetPost     TargetType = "post"
	TargetScratch  TargetType = "scratch"
	TargetPlaylist TargetType = "playlist"
	TargetAlbum    TargetType = "album"
	TargetComment  TargetType = "comment"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetUser, TargetPost, TargetScratch, TargetPlaylist, TargetAlbum, TargetComment:
		return true
	}
	return false
}

// TargetRef points at another aggregate by type and id.
type TargetRef struct {
	Type TargetType    `bson:"type" json:"type"`
	ID   bson.ObjectID `bson:"id" json:"id"`
}

// EarnedBadge is the snapshot of a badge embedded in a user.
type EarnedBadge struct {
	BadgeID  bson.ObjectID `bson:"badgeId" json:"badge_id"`
	Name     string        `bson:"name" json:"name"`
	IconURL  string        `bson:"iconUrl,omitempty" json:"icon_url,omitempty"`
	Tier     string        `bson:"tier,omitempty" json:"tier,omitempty"`
	EarnedAt time.Time     `bson:"earnedAt" json:"earned_at"`
}

type UserStats struct {
	FollowersCount int64 `bson:"followersCount" json:"followers_count"`
	FollowingCount int64 `bson:"followingCount" json:"following_count"`
	PostsCount     int64 `bson:"postsCount" json:"posts_count"`
	ScratchesCount int64 `bson:"scratchesCount" json:"scratches_count"`
	PlaylistsCount int64 `bson:"playlistsCount" json:"playlists_count"`
	LikesReceived  int64 `bson:"likesReceived" json:"likes_received"`
	BadgesCount    int64 `bson:"badgesCount" json:"badges_count"`
}

type ArtistStats struct {
	AlbumsCount    int64 `bson:"albumsCount" json:"albums_count"`
	TracksCount    int64 `bson:"tracksCount" json:"tracks_count"`
	FollowersCount int64 `bson:"followersCount" json:"followers_count"`
}

type AlbumStats struct {
	TrackCount      int64   `bson:"trackCount" json:"track_count"`
	TotalDurationMs int64   `bson:"totalDurationMs" json:"total_duration_ms"`
	ScratchCount    int64   `bson:"scratchCount" json:"scratch_count"`
	RatingsCount    int64   `bson:"ratingsCount" json:"ratings_count"`
	RatingSum       int64   `bson:"ratingSum" json:"-"`
	AverageRating   float64 `bson:"averageRating" json:"average_rating"`
	PostsCount      int64   `bson:"postsCount" json:"posts_count"`
}

type PostStats struct {
	LikesCount    int64 `bson:"likesCount" json:"likes_count"`
	CommentsCount int64 `bson:"commentsCount" json:"comments_count"`
	SharesCount   int64 `bson:"sharesCount" json:"shares_count"`
}

type ScratchStats struct {
	LikesCount    int64 `bson:"likesCount" json:"likes_count"`
	CommentsCount int64 `bson:"commentsCount" json:"comments_count"`
}

type PlaylistStats struct {
	TrackCount      int64 `bson:"trackCount" json:"track_count"`
	TotalDurationMs int64 `bson:"totalDurationMs" json:"total_duration_ms"`
	FollowersCount  int64 `bson:"followersCount" json:"followers_count"`
}

type TrackStats struct {
	PlaylistCount int64 `bson:"playlistCount" json:"playlist_count"`
	PlayCount     int64 `bson:"playCount" json:"play_count"`
}

type BadgeStats struct {
	AwardedCount int64 `bson:"awardedCount" json:"awarded_count"`
}

type GenreStats struct {
	AlbumsCount  int64 `bson:"albumsCount" json:"albums_count"`
	ArtistsCount int64 `bson:"artistsCount" json:"artists_count"`
}

// addUnique appends v to list unless an equal value (case-insensitive) is
// already present. It reports whether the list changed.
func addUnique(list []string, v string) ([]string, bool) {
	for _, existing := range list {
		if strings.EqualFold(existing, v) {
			return list, false
		}
	}
	return append(list, v), true
}

func removeValue(list []string, v string) ([]string, bool) {
	for i, existing := range list {
		if strings.EqualFold(existing, v) {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func addID(list []bson.ObjectID, id bson.ObjectID) ([]bson.ObjectID, bool) {
	for _, existing := range list {
		if existing == id {
			return list, false
		}
	}
	return append(list, id), true
}

func removeID(list []bson.ObjectID, id bson.ObjectID) ([]bson.ObjectID, bool) {
	for i, existing := range list {
		if existing == id {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func cleanText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrBlankText
	}
	return s, nil
}

// NormalizeTag lower-cases a tag and strips a leading '#'.
func NormalizeTag(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "#"))
}
