package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type PlaylistService struct {
	db     *database.Context
	stores *repository.Stores
	now    func() time.Time
}

func NewPlaylistService(db *database.Context, stores *repository.Stores) *PlaylistService {
	return &PlaylistService{db: db, stores: stores, now: models.Now}
}

func (s *PlaylistService) Create(ctx context.Context, ownerID bson.ObjectID, req *dto.CreatePlaylistRequest) (*models.Playlist, error) {
	owner, err := load(ctx, s.stores.Users.Repository, ownerID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	p, err := models.NewPlaylist(owner.Ref(), req.Name, req.IsPublic)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := p.Rename(req.Name, req.Description, now); err != nil {
		return nil, err
	}
	for _, t := range req.Tags {
		if _, err := p.AddTag(t, now); err != nil {
			return nil, err
		}
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := insert(ctx, s.stores.Playlists.Repository, p); err != nil {
			return err
		}
		_, err := s.stores.Users.IncrementStat(ctx, ownerID, repository.StatPlaylists, 1)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.stores.Tags.Use(ctx, p.Tags, now); err != nil {
		return nil, fmt.Errorf("failed to record tags: %w", err)
	}
	return p, nil
}

// Get returns a live playlist. Private playlists are visible to their owner
// and admins only; everyone else gets ErrPlaylistNotFound.
func (s *PlaylistService) Get(ctx context.Context, actor Actor, playlistHex string) (*models.Playlist, error) {
	id, err := parseID(playlistHex, ErrPlaylistNotFound)
	if err != nil {
		return nil, err
	}
	p, err := load(ctx, s.stores.Playlists.Repository, id, ErrPlaylistNotFound)
	if err != nil {
		return nil, err
	}
	if !p.IsPublic && !actor.Owns(p.Owner.ID) {
		return nil, ErrPlaylistNotFound
	}
	return p, nil
}

// owned wraps fn with the liveness and ownership checks every playlist
// mutation shares.
func (s *PlaylistService) owned(actor Actor, fn func(*models.Playlist) error) func(*models.Playlist) error {
	return liveOnly(func(p *models.Playlist) error {
		if !actor.Owns(p.Owner.ID) {
			if !p.IsPublic {
				return ErrPlaylistNotFound
			}
			return ErrForbidden
		}
		return fn(p)
	}, ErrPlaylistNotFound)
}

func (s *PlaylistService) Update(ctx context.Context, actor Actor, playlistHex string, req *dto.UpdatePlaylistRequest) (*models.Playlist, error) {
	id, err := parseID(playlistHex, ErrPlaylistNotFound)
	if err != nil {
		return nil, err
	}
	return mutate(ctx, s.stores.Playlists.Repository, id, ErrPlaylistNotFound, s.owned(actor, func(p *models.Playlist) error {
		now := s.now()
		if err := p.Rename(req.Name, req.Description, now); err != nil {
			return err
		}
		if req.IsPublic != nil {
			p.SetVisibility(*req.IsPublic, now)
		}
		return nil
	}))
}

// AddTrack appends a snapshot of the track at the end of the playlist.
func (s *PlaylistService) AddTrack(ctx context.Context, actor Actor, playlistHex string, req *dto.AddTrackRequest) (*models.Playlist, error) {
	id, err := parseID(playlistHex, ErrPlaylistNotFound)
	if err != nil {
		return nil, err
	}
	trackID, err := parseID(req.TrackID, ErrTrackNotFound)
	if err != nil {
		return nil, err
	}
	track, err := load(ctx, s.stores.Tracks.Repository, trackID, ErrTrackNotFound)
	if err != nil {
		return nil, err
	}
	p, err := mutate(ctx, s.stores.Playlists.Repository, id, ErrPlaylistNotFound, s.owned(actor, func(p *models.Playlist) error {
		_, err := p.AddTrack(track.Ref(), actor.ID, s.now())
		return err
	}))
	if err != nil {
		return nil, err
	}
	return p, s.syncTrackCount(ctx, trackID)
}

func (s *PlaylistService) RemoveTrack(ctx context.Context, actor Actor, playlistHex, entryHex string) (*models.Playlist, error) {
	id, err := parseID(playlistHex, ErrPlaylistNotFound)
	if err != nil {
		return nil, err
	}
	entryID, err := parseID(entryHex, ErrTrackNotFound)
	if err != nil {
		return nil, err
	}
	var trackID bson.ObjectID
	p, err := mutate(ctx, s.stores.Playlists.Repository, id, ErrPlaylistNotFound, s.owned(actor, func(p *models.Playlist) error {
		for _, t := range p.Tracks {
			if t.ID == entryID {
				trackID = t.Track.ID
			}
		}
		return trackErr(p.RemoveTrack(entryID, s.now()))
	}))
	if err != nil {
		return nil, err
	}
	return p, s.syncTrackCount(ctx, trackID)
}

func (s *PlaylistService) MoveTrack(ctx context.Context, actor Actor, playlistHex, entryHex string, req *dto.MoveTrackRequest) (*models.Playlist, error) {
	id, err := parseID(playlistHex, ErrPlaylistNotFound)
	if err != nil {
		return nil, err
	}
	entryID, err := parseID(entryHex, ErrTrackNotFound)
	if err != nil {
		return nil, err
	}
	return mutate(ctx, s.stores.Playlists.Repository, id, ErrPlaylistNotFound, s.owned(actor, func(p *models.Playlist) error {
		return trackErr(p.MoveTrack(entryID, req.Position, s.now()))
	}))
}

func trackErr(err error) error {
	if errors.Is(err, models.ErrChildNotFound) {
		return ErrTrackNotFound
	}
	return err
}

// syncTrackCount recounts the live playlists listing the track.
func (s *PlaylistService) syncTrackCount(ctx context.Context, trackID bson.ObjectID) error {
	if trackID.IsZero() {
		return nil
	}
	n, err := s.stores.Playlists.CountContaining(ctx, trackID)
	if err != nil {
		return err
	}
	_, err = s.stores.Tracks.UpdatePartial(ctx, trackID, query.NewUpdate().Set("stats.playlistCount", n))
	return err
}

func (s *PlaylistService) Delete(ctx context.Context, actor Actor, playlistHex string) error {
	id, err := parseID(playlistHex, ErrPlaylistNotFound)
	if err != nil {
		return err
	}
	p, err := load(ctx, s.stores.Playlists.Repository, id, ErrPlaylistNotFound)
	if err != nil {
		return err
	}
	if !actor.Owns(p.Owner.ID) {
		return ErrForbidden
	}
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		changed, err := s.stores.Playlists.SoftDelete(ctx, id)
		if err != nil {
			return err
		}
		if !changed {
			return ErrPlaylistNotFound
		}
		_, err = s.stores.Users.IncrementStat(ctx, p.Owner.ID, repository.StatPlaylists, -1)
		return err
	})
	if err != nil {
		return err
	}
	seen := make(map[bson.ObjectID]bool, len(p.Tracks))
	for _, t := range p.Tracks {
		if seen[t.Track.ID] {
			continue
		}
		seen[t.Track.ID] = true
		if err := s.syncTrackCount(ctx, t.Track.ID); err != nil {
			return err
		}
	}
	_, err = s.stores.Tags.Release(ctx, p.Tags)
	return err
}

// ByOwner lists the owner's playlists, including private ones only for the
// owner and admins.
func (s *PlaylistService) ByOwner(ctx context.Context, actor Actor, ownerID bson.ObjectID, skip, limit int64) (*repository.Page[*models.Playlist], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Playlists.ByOwner(ctx, ownerID, actor.Owns(ownerID), skip, limit)
}

func (s *PlaylistService) Public(ctx context.Context, skip, limit int64) (*repository.Page[*models.Playlist], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Playlists.Public(ctx, skip, limit)
}
