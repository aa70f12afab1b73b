package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
)

type SystemLogStore struct {
	*Repository[models.SystemLog, *models.SystemLog]
}

// NewSystemLogStore is usually given its own logger with WithLogger so its
// failures are not fed back into the store.
func NewSystemLogStore(db *database.Context, opts ...Option) *SystemLogStore {
	return &SystemLogStore{New[models.SystemLog](db, opts...)}
}

// Purge deletes entries older than the cutoff.
func (s *SystemLogStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.DeleteMany(ctx, query.Before("timestamp", cutoff))
}

// Recent pages entries newest first, optionally for one level.
func (s *SystemLogStore) Recent(ctx context.Context, level string, skip, limit int64) (*Page[*models.SystemLog], error) {
	filter := query.Eq("level", level)
	if level == "" {
		filter = nil
	}
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("timestamp")), skip, limit)
}

// Stores bundles one store per collection.
type Stores struct {
	Users         *UserStore
	Artists       *ArtistStore
	Albums        *AlbumStore
	Tracks        *TrackStore
	Genres        *GenreStore
	Tags          *TagStore
	Badges        *BadgeStore
	Posts         *PostStore
	Scratches     *ScratchStore
	Playlists     *PlaylistStore
	Comments      *CommentStore
	Follows       *FollowStore
	Notifications *NotificationStore
	RefreshTokens *RefreshTokenStore
	Reports       *ReportStore
	Blocks        *BlockStore
}

func NewStores(db *database.Context) *Stores {
	return &Stores{
		Users:         NewUserStore(db),
		Artists:       NewArtistStore(db),
		Albums:        NewAlbumStore(db),
		Tracks:        NewTrackStore(db),
		Genres:        NewGenreStore(db),
		Tags:          NewTagStore(db),
		Badges:        NewBadgeStore(db),
		Posts:         NewPostStore(db),
		Scratches:     NewScratchStore(db),
		Playlists:     NewPlaylistStore(db),
		Comments:      NewCommentStore(db),
		Follows:       NewFollowStore(db),
		Notifications: NewNotificationStore(db),
		RefreshTokens: NewRefreshTokenStore(db),
		Reports:       NewReportStore(db),
		Blocks:        NewBlockStore(db),
	}
}
