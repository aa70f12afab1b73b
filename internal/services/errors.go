package services

import "errors"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("not allowed")

	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
	ErrSelfFollow       = errors.New("cannot follow yourself")

	ErrAlbumNotFound    = errors.New("album not found")
	ErrArtistNotFound   = errors.New("artist not found")
	ErrGenreNotFound    = errors.New("genre not found")
	ErrTrackNotFound    = errors.New("track not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrScratchNotFound  = errors.New("scratch not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrBadgeNotFound    = errors.New("badge not found")
	ErrAlreadyScratched = errors.New("album already scratched")
	ErrAlreadyLiked     = errors.New("already liked")
	ErrNotLiked         = errors.New("not liked")
	ErrBadgeAwarded     = errors.New("badge already awarded")

	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidBucket        = errors.New("bucket must be day, week, month or year")

	ErrReportNotFound = errors.New("report not found")
	ErrAlreadyBlocked = errors.New("user already blocked")
	ErrSelfBlock      = errors.New("cannot block yourself")

	ErrContentRejected = errors.New("content rejected")
)

// RejectedError carries the moderation reason for rejected text.
type RejectedError struct {
	Reason  string
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

func (e *RejectedError) Is(target error) bool { return target == ErrContentRejected }
