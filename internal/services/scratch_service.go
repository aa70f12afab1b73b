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

const statScratchCount = "stats.scratchCount"

type ScratchService struct {
	db            *database.Context
	stores        *repository.Stores
	moderation    *ModerationService
	notifications *NotificationService
	now           func() time.Time
}

func NewScratchService(db *database.Context, stores *repository.Stores, moderation *ModerationService, notifications *NotificationService) *ScratchService {
	return &ScratchService{db: db, stores: stores, moderation: moderation, notifications: notifications, now: models.Now}
}

// Create rates an album. The scratch, the author's counter and the album's
// rating aggregate are written in one transaction. A user has at most one
// live scratch per album.
func (s *ScratchService) Create(ctx context.Context, authorID bson.ObjectID, req *dto.CreateScratchRequest) (*models.Scratch, error) {
	albumID, err := parseID(req.AlbumID, ErrAlbumNotFound)
	if err != nil {
		return nil, err
	}
	if err := s.moderation.Check(req.Review); err != nil {
		return nil, err
	}
	author, err := load(ctx, s.stores.Users.Repository, authorID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	album, err := load(ctx, s.stores.Albums.Repository, albumID, ErrAlbumNotFound)
	if err != nil {
		return nil, err
	}
	existing, err := s.stores.Scratches.ByAuthorAndAlbum(ctx, authorID, albumID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyScratched
	}

	now := s.now()
	scratch, err := models.NewScratch(author.Ref(), album.Ref(), req.Rating)
	if err != nil {
		return nil, err
	}
	scratch.SetReview(req.Review, now)
	for _, t := range req.Tags {
		if _, err := scratch.AddTag(t, now); err != nil {
			return nil, err
		}
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := insert(ctx, s.stores.Scratches.Repository, scratch); err != nil {
			return err
		}
		if _, err := s.stores.Users.IncrementStat(ctx, authorID, repository.StatScratches, 1); err != nil {
			return err
		}
		return s.foldRating(ctx, albumID, nil, &scratch.Rating, 1)
	})
	if err != nil {
		return nil, err
	}

	if err := s.stores.Tags.Use(ctx, scratch.Tags, now); err != nil {
		return nil, fmt.Errorf("failed to record tags: %w", err)
	}
	return scratch, nil
}

// foldRating moves one rating in or out of the album aggregate and adjusts
// the scratch count by delta.
func (s *ScratchService) foldRating(ctx context.Context, albumID bson.ObjectID, retract, apply *int, delta int64) error {
	_, err := mutate(ctx, s.stores.Albums.Repository, albumID, ErrAlbumNotFound, func(a *models.Album) error {
		now := s.now()
		if retract != nil {
			if err := a.RetractRating(*retract, now); err != nil {
				return err
			}
		}
		if apply != nil {
			return a.ApplyRating(*apply, now)
		}
		return nil
	})
	if err != nil || delta == 0 {
		return err
	}
	u := query.Increment(statScratchCount, delta)
	if delta < 0 {
		_, err = s.stores.Albums.UpdateWhere(ctx, albumID, bson.M{statScratchCount: bson.M{"$gte": -delta}}, u)
		return err
	}
	_, err = s.stores.Albums.UpdatePartial(ctx, albumID, u)
	return err
}

func (s *ScratchService) Get(ctx context.Context, scratchHex string) (*models.Scratch, error) {
	id, err := parseID(scratchHex, ErrScratchNotFound)
	if err != nil {
		return nil, err
	}
	return load(ctx, s.stores.Scratches.Repository, id, ErrScratchNotFound)
}

// Update changes the rating and/or review. A rating change is folded into
// the album aggregate in the same transaction.
func (s *ScratchService) Update(ctx context.Context, actor Actor, scratchHex string, req *dto.UpdateScratchRequest) (*models.Scratch, error) {
	id, err := parseID(scratchHex, ErrScratchNotFound)
	if err != nil {
		return nil, err
	}
	if req.Review != nil {
		if err := s.moderation.Check(*req.Review); err != nil {
			return nil, err
		}
	}

	var updated *models.Scratch
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		var prev int
		sc, err := mutate(ctx, s.stores.Scratches.Repository, id, ErrScratchNotFound, liveOnly(func(sc *models.Scratch) error {
			if !actor.Owns(sc.Author.ID) {
				return ErrForbidden
			}
			now := s.now()
			prev = sc.Rating
			if req.Rating != nil {
				if _, err := sc.SetRating(*req.Rating, now); err != nil {
					return err
				}
			}
			if req.Review != nil {
				sc.SetReview(*req.Review, now)
			}
			return nil
		}, ErrScratchNotFound))
		if err != nil {
			return err
		}
		updated = sc
		if sc.Rating == prev {
			return nil
		}
		return s.foldRating(ctx, sc.Album.ID, &prev, &sc.Rating, 0)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes the scratch and takes it out of the author's and
// album's aggregates.
func (s *ScratchService) Delete(ctx context.Context, actor Actor, scratchHex string) error {
	id, err := parseID(scratchHex, ErrScratchNotFound)
	if err != nil {
		return err
	}
	sc, err := load(ctx, s.stores.Scratches.Repository, id, ErrScratchNotFound)
	if err != nil {
		return err
	}
	if !actor.Owns(sc.Author.ID) {
		return ErrForbidden
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		changed, err := s.stores.Scratches.SoftDelete(ctx, id)
		if err != nil {
			return err
		}
		if !changed {
			return ErrScratchNotFound
		}
		if _, err := s.stores.Users.IncrementStat(ctx, sc.Author.ID, repository.StatScratches, -1); err != nil {
			return err
		}
		return s.foldRating(ctx, sc.Album.ID, &sc.Rating, nil, -1)
	})
	if err != nil {
		return err
	}
	_, err = s.stores.Tags.Release(ctx, sc.Tags)
	return err
}

// Restore undoes Delete. It fails with ErrAlreadyScratched when the author
// has rated the album again in the meantime.
func (s *ScratchService) Restore(ctx context.Context, actor Actor, scratchHex string) (*models.Scratch, error) {
	id, err := parseID(scratchHex, ErrScratchNotFound)
	if err != nil {
		return nil, err
	}
	sc, err := s.stores.Scratches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc == nil || !sc.Deleted() {
		return nil, ErrScratchNotFound
	}
	if !actor.Owns(sc.Author.ID) {
		return nil, ErrForbidden
	}
	live, err := s.stores.Scratches.ByAuthorAndAlbum(ctx, sc.Author.ID, sc.Album.ID)
	if err != nil {
		return nil, err
	}
	if live != nil {
		return nil, ErrAlreadyScratched
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		changed, err := s.stores.Scratches.Restore(ctx, id)
		if err != nil {
			return err
		}
		if !changed {
			return ErrScratchNotFound
		}
		if _, err := s.stores.Users.IncrementStat(ctx, sc.Author.ID, repository.StatScratches, 1); err != nil {
			return err
		}
		return s.foldRating(ctx, sc.Album.ID, nil, &sc.Rating, 1)
	})
	if err != nil {
		return nil, err
	}
	if err := s.stores.Tags.Use(ctx, sc.Tags, s.now()); err != nil {
		return nil, fmt.Errorf("failed to record tags: %w", err)
	}
	return s.stores.Scratches.GetByID(ctx, id)
}

// Like adds the user to the scratch's likers with a conditional update and
// bumps the author's likes counter in the same transaction.
func (s *ScratchService) Like(ctx context.Context, userID bson.ObjectID, scratchHex string) (*models.Scratch, error) {
	id, err := parseID(scratchHex, ErrScratchNotFound)
	if err != nil {
		return nil, err
	}
	cond := query.And(query.NotDeleted(), bson.M{"likedBy": bson.M{"$ne": userID}})
	u := query.AddToArray("likedBy", userID).Inc("stats.likesCount", 1)
	var sc *models.Scratch
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		out, err := s.stores.Scratches.UpdateWhere(ctx, id, cond, u)
		if err != nil {
			return err
		}
		if out == nil {
			if _, err := load(ctx, s.stores.Scratches.Repository, id, ErrScratchNotFound); err != nil {
				return err
			}
			return ErrAlreadyLiked
		}
		sc = out
		_, err = s.stores.Users.IncrementStat(ctx, out.Author.ID, repository.StatLikes, 1)
		return err
	})
	if err != nil {
		return nil, err
	}

	if liker, err := s.stores.Users.GetByID(ctx, userID); err == nil && liker != nil {
		ref := liker.Ref()
		s.notifications.notifyQuietly(ctx, sc.Author.ID, models.NotificationLike, &ref,
			&models.TargetRef{Type: models.TargetScratch, ID: id},
			fmt.Sprintf("%s liked your scratch of %s", liker.Username, sc.Album.Title))
	}
	return sc, nil
}

func (s *ScratchService) Unlike(ctx context.Context, userID bson.ObjectID, scratchHex string) (*models.Scratch, error) {
	id, err := parseID(scratchHex, ErrScratchNotFound)
	if err != nil {
		return nil, err
	}
	cond := query.And(query.NotDeleted(), bson.M{"likedBy": userID})
	u := query.RemoveFromArray("likedBy", userID).Inc("stats.likesCount", -1)
	var sc *models.Scratch
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		out, err := s.stores.Scratches.UpdateWhere(ctx, id, cond, u)
		if err != nil {
			return err
		}
		if out == nil {
			if _, err := load(ctx, s.stores.Scratches.Repository, id, ErrScratchNotFound); err != nil {
				return err
			}
			return ErrNotLiked
		}
		sc = out
		_, err = s.stores.Users.IncrementStat(ctx, out.Author.ID, repository.StatLikes, -1)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// Comment stores a standalone comment and bumps the scratch's counter in
// one transaction.
func (s *ScratchService) Comment(ctx context.Context, authorID bson.ObjectID, scratchHex string, req *dto.CommentRequest) (*models.Comment, error) {
	id, err := parseID(scratchHex, ErrScratchNotFound)
	if err != nil {
		return nil, err
	}
	if err := s.moderation.Check(req.Content); err != nil {
		return nil, err
	}
	author, err := load(ctx, s.stores.Users.Repository, authorID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	target := models.TargetRef{Type: models.TargetScratch, ID: id}
	comment, err := models.NewComment(target, author.Ref(), req.Content)
	if err != nil {
		return nil, err
	}

	var scratch *models.Scratch
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		sc, err := mutate(ctx, s.stores.Scratches.Repository, id, ErrScratchNotFound, liveOnly(func(sc *models.Scratch) error {
			sc.IncrementComments(s.now())
			return nil
		}, ErrScratchNotFound))
		if err != nil {
			return err
		}
		scratch = sc
		_, err = insert(ctx, s.stores.Comments.Repository, comment)
		return err
	})
	if err != nil {
		return nil, err
	}

	ref := author.Ref()
	s.notifications.notifyQuietly(ctx, scratch.Author.ID, models.NotificationComment, &ref, &target,
		fmt.Sprintf("%s commented on your scratch of %s", author.Username, scratch.Album.Title))
	return comment, nil
}

func (s *ScratchService) DeleteComment(ctx context.Context, actor Actor, commentHex string) error {
	id, err := parseID(commentHex, ErrCommentNotFound)
	if err != nil {
		return err
	}
	c, err := load(ctx, s.stores.Comments.Repository, id, ErrCommentNotFound)
	if err != nil {
		return err
	}
	if !actor.Owns(c.Author.ID) {
		return ErrForbidden
	}
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		changed, err := s.stores.Comments.SoftDelete(ctx, id)
		if err != nil {
			return err
		}
		if !changed {
			return ErrCommentNotFound
		}
		if c.Target.Type != models.TargetScratch {
			return nil
		}
		_, err = mutate(ctx, s.stores.Scratches.Repository, c.Target.ID, ErrScratchNotFound, func(sc *models.Scratch) error {
			sc.DecrementComments(s.now())
			return nil
		})
		if errors.Is(err, ErrScratchNotFound) {
			return nil
		}
		return err
	})
}

func (s *ScratchService) Comments(ctx context.Context, scratchHex string, skip, limit int64) (*repository.Page[*models.Comment], error) {
	id, err := parseID(scratchHex, ErrScratchNotFound)
	if err != nil {
		return nil, err
	}
	skip, limit = Bounds(skip, limit)
	return s.stores.Comments.ByTarget(ctx, models.TargetRef{Type: models.TargetScratch, ID: id}, skip, limit)
}

func (s *ScratchService) AlbumFeed(ctx context.Context, albumHex string, skip, limit int64) (*repository.Page[*models.Scratch], error) {
	id, err := parseID(albumHex, ErrAlbumNotFound)
	if err != nil {
		return nil, err
	}
	skip, limit = Bounds(skip, limit)
	return s.stores.Scratches.ByAlbum(ctx, id, skip, limit)
}

func (s *ScratchService) ByAuthor(ctx context.Context, authorID bson.ObjectID, skip, limit int64) (*repository.Page[*models.Scratch], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Scratches.ByAuthor(ctx, authorID, skip, limit)
}

func (s *ScratchService) RatingDistribution(ctx context.Context, albumHex string) ([]query.GroupCount, error) {
	id, err := parseID(albumHex, ErrAlbumNotFound)
	if err != nil {
		return nil, err
	}
	return s.stores.Scratches.RatingDistribution(ctx, id)
}

func (s *ScratchService) RatingSummary(ctx context.Context, albumHex string) (repository.RatingSummary, error) {
	id, err := parseID(albumHex, ErrAlbumNotFound)
	if err != nil {
		return repository.RatingSummary{}, err
	}
	return s.stores.Scratches.RatingSummary(ctx, id)
}

// Activity buckets the author's scratches by unit (day, week, month, year).
func (s *ScratchService) Activity(ctx context.Context, authorID bson.ObjectID, unit string, from, to *time.Time) ([]query.TimeBucket, error) {
	b, err := parseBucket(unit)
	if err != nil {
		return nil, err
	}
	return s.stores.Scratches.Activity(ctx, authorID, b, from, to)
}
