package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type PlaylistStore struct {
	*Repository[models.Playlist, *models.Playlist]
}

func NewPlaylistStore(db *database.Context, opts ...Option) *PlaylistStore {
	return &PlaylistStore{New[models.Playlist](db, opts...)}
}

// ByOwner pages an owner's live playlists. Private ones are included only
// when the owner is asking.
func (s *PlaylistStore) ByOwner(ctx context.Context, ownerID bson.ObjectID, includePrivate bool, skip, limit int64) (*Page[*models.Playlist], error) {
	filter := query.And(query.NotDeleted(), query.Eq("owner.id", ownerID))
	if !includePrivate {
		filter = query.And(filter, query.Eq("isPublic", true))
	}
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("createdAt")), skip, limit)
}

func (s *PlaylistStore) Public(ctx context.Context, skip, limit int64) (*Page[*models.Playlist], error) {
	filter := query.And(query.NotDeleted(), query.Eq("isPublic", true))
	return s.Paginate(ctx, filter, query.StableSort(query.Desc("createdAt")), skip, limit)
}

// CountContaining counts live playlists that list the track at least once.
func (s *PlaylistStore) CountContaining(ctx context.Context, trackID bson.ObjectID) (int64, error) {
	return s.Count(ctx, query.And(query.NotDeleted(), query.Eq("tracks.track.id", trackID)))
}
