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

const (
	feedFollowLimit   = 500
	trendingWindow    = 7 * 24 * time.Hour
	notificationQuote = 60
	statAlbumPosts    = "stats.postsCount"
)

type PostService struct {
	db            *database.Context
	stores        *repository.Stores
	moderation    *ModerationService
	notifications *NotificationService
	now           func() time.Time
}

func NewPostService(db *database.Context, stores *repository.Stores, moderation *ModerationService, notifications *NotificationService) *PostService {
	return &PostService{db: db, stores: stores, moderation: moderation, notifications: notifications, now: models.Now}
}

func (s *PostService) Create(ctx context.Context, authorID bson.ObjectID, req *dto.CreatePostRequest) (*models.Post, error) {
	if err := s.moderation.Check(req.Content); err != nil {
		return nil, err
	}
	author, err := load(ctx, s.stores.Users.Repository, authorID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	post, err := models.NewPost(author.Ref(), req.Content)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var albumID bson.ObjectID
	if req.AlbumID != "" {
		if albumID, err = parseID(req.AlbumID, ErrAlbumNotFound); err != nil {
			return nil, err
		}
		album, err := load(ctx, s.stores.Albums.Repository, albumID, ErrAlbumNotFound)
		if err != nil {
			return nil, err
		}
		ref := album.Ref()
		if err := post.SetAlbum(&ref, now); err != nil {
			return nil, err
		}
	}
	for _, t := range req.Tags {
		if _, err := post.AddTag(t, now); err != nil {
			return nil, err
		}
	}
	if req.ImageURLs != nil {
		post.ImageURLs = req.ImageURLs
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := insert(ctx, s.stores.Posts.Repository, post); err != nil {
			return err
		}
		if _, err := s.stores.Users.IncrementStat(ctx, authorID, repository.StatPosts, 1); err != nil {
			return err
		}
		if albumID.IsZero() {
			return nil
		}
		_, err := s.stores.Albums.UpdatePartial(ctx, albumID, query.Increment(statAlbumPosts, 1))
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.stores.Tags.Use(ctx, post.Tags, now); err != nil {
		return nil, fmt.Errorf("failed to record tags: %w", err)
	}
	return post, nil
}

func (s *PostService) Get(ctx context.Context, postHex string) (*models.Post, error) {
	id, err := parseID(postHex, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	return load(ctx, s.stores.Posts.Repository, id, ErrPostNotFound)
}

func (s *PostService) Edit(ctx context.Context, actor Actor, postHex string, req *dto.EditPostRequest) (*models.Post, error) {
	id, err := parseID(postHex, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	if err := s.moderation.Check(req.Content); err != nil {
		return nil, err
	}
	return mutate(ctx, s.stores.Posts.Repository, id, ErrPostNotFound, liveOnly(func(p *models.Post) error {
		if !actor.Owns(p.Author.ID) {
			return ErrForbidden
		}
		return p.Edit(req.Content, s.now())
	}, ErrPostNotFound))
}

// Delete soft-deletes the post and takes it out of the author's counter.
func (s *PostService) Delete(ctx context.Context, actor Actor, postHex string) error {
	id, err := parseID(postHex, ErrPostNotFound)
	if err != nil {
		return err
	}
	p, err := load(ctx, s.stores.Posts.Repository, id, ErrPostNotFound)
	if err != nil {
		return err
	}
	if !actor.Owns(p.Author.ID) {
		return ErrForbidden
	}
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		changed, err := s.stores.Posts.SoftDelete(ctx, id)
		if err != nil {
			return err
		}
		if !changed {
			return ErrPostNotFound
		}
		_, err = s.stores.Users.IncrementStat(ctx, p.Author.ID, repository.StatPosts, -1)
		return err
	})
	if err != nil {
		return err
	}
	_, err = s.stores.Tags.Release(ctx, p.Tags)
	return err
}

func (s *PostService) Restore(ctx context.Context, actor Actor, postHex string) (*models.Post, error) {
	id, err := parseID(postHex, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	p, err := s.stores.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Deleted() {
		return nil, ErrPostNotFound
	}
	if !actor.Owns(p.Author.ID) {
		return nil, ErrForbidden
	}
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		changed, err := s.stores.Posts.Restore(ctx, id)
		if err != nil {
			return err
		}
		if !changed {
			return ErrPostNotFound
		}
		_, err = s.stores.Users.IncrementStat(ctx, p.Author.ID, repository.StatPosts, 1)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.stores.Tags.Use(ctx, p.Tags, s.now()); err != nil {
		return nil, fmt.Errorf("failed to record tags: %w", err)
	}
	return s.stores.Posts.GetByID(ctx, id)
}

// AddComment appends an embedded comment. Every call adds a new comment.
func (s *PostService) AddComment(ctx context.Context, authorID bson.ObjectID, postHex string, req *dto.CommentRequest) (*models.PostComment, error) {
	id, err := parseID(postHex, ErrPostNotFound)
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

	var added models.PostComment
	post, err := mutate(ctx, s.stores.Posts.Repository, id, ErrPostNotFound, liveOnly(func(p *models.Post) error {
		c, err := p.AddComment(author.Ref(), req.Content, s.now())
		if err != nil {
			return err
		}
		added = *c
		return nil
	}, ErrPostNotFound))
	if err != nil {
		return nil, err
	}

	ref := author.Ref()
	s.notifications.notifyQuietly(ctx, post.Author.ID, models.NotificationComment, &ref,
		&models.TargetRef{Type: models.TargetPost, ID: id},
		fmt.Sprintf("%s commented on your post: %s", author.Username, post.Excerpt(notificationQuote)))
	return &added, nil
}

// DeleteComment tombstones an embedded comment. The comment author, the
// post author and admins may delete it.
func (s *PostService) DeleteComment(ctx context.Context, actor Actor, postHex, commentHex string) (*models.Post, error) {
	id, err := parseID(postHex, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	commentID, err := parseID(commentHex, ErrCommentNotFound)
	if err != nil {
		return nil, err
	}
	return mutate(ctx, s.stores.Posts.Repository, id, ErrPostNotFound, liveOnly(func(p *models.Post) error {
		c, ok := p.Comment(commentID)
		if !ok {
			return ErrCommentNotFound
		}
		if !actor.Owns(c.Author.ID) && !actor.Owns(p.Author.ID) {
			return ErrForbidden
		}
		err := p.SoftDeleteComment(commentID, s.now())
		if errors.Is(err, models.ErrChildNotFound) {
			return ErrCommentNotFound
		}
		return err
	}, ErrPostNotFound))
}

// Like is idempotent at the document level: liking twice reports
// ErrAlreadyLiked and changes nothing. The post and the author's likes
// counter change in one transaction.
func (s *PostService) Like(ctx context.Context, userID bson.ObjectID, postHex string) (*models.Post, error) {
	id, err := parseID(postHex, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	var post *models.Post
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := mutate(ctx, s.stores.Posts.Repository, id, ErrPostNotFound, liveOnly(func(p *models.Post) error {
			if !p.Like(userID, s.now()) {
				return ErrAlreadyLiked
			}
			return nil
		}, ErrPostNotFound))
		if err != nil {
			return err
		}
		post = p
		_, err = s.stores.Users.IncrementStat(ctx, p.Author.ID, repository.StatLikes, 1)
		return err
	})
	if err != nil {
		return nil, err
	}

	if liker, err := s.stores.Users.GetByID(ctx, userID); err == nil && liker != nil {
		ref := liker.Ref()
		s.notifications.notifyQuietly(ctx, post.Author.ID, models.NotificationLike, &ref,
			&models.TargetRef{Type: models.TargetPost, ID: id},
			fmt.Sprintf("%s liked your post: %s", liker.Username, post.Excerpt(notificationQuote)))
	}
	return post, nil
}

func (s *PostService) Unlike(ctx context.Context, userID bson.ObjectID, postHex string) (*models.Post, error) {
	id, err := parseID(postHex, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	var post *models.Post
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := mutate(ctx, s.stores.Posts.Repository, id, ErrPostNotFound, liveOnly(func(p *models.Post) error {
			if !p.Unlike(userID, s.now()) {
				return ErrNotLiked
			}
			return nil
		}, ErrPostNotFound))
		if err != nil {
			return err
		}
		post = p
		_, err = s.stores.Users.IncrementStat(ctx, p.Author.ID, repository.StatLikes, -1)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Feed pages posts by the user and the people they follow, newest first,
// leaving out anyone the user has blocked.
func (s *PostService) Feed(ctx context.Context, userID bson.ObjectID, skip, limit int64) (*repository.Page[*models.Post], error) {
	skip, limit = Bounds(skip, limit)
	following, err := s.stores.Follows.FolloweeIDs(ctx, userID, feedFollowLimit)
	if err != nil {
		return nil, err
	}
	blocked, err := s.stores.Blocks.BlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	hidden := make(map[bson.ObjectID]bool, len(blocked))
	for _, id := range blocked {
		hidden[id] = true
	}
	authors := []bson.ObjectID{userID}
	for _, id := range following {
		if !hidden[id] {
			authors = append(authors, id)
		}
	}
	return s.stores.Posts.Feed(ctx, authors, skip, limit)
}

// Explore is the global feed.
func (s *PostService) Explore(ctx context.Context, skip, limit int64) (*repository.Page[*models.Post], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Posts.Feed(ctx, nil, skip, limit)
}

func (s *PostService) ByAuthor(ctx context.Context, authorID bson.ObjectID, skip, limit int64) (*repository.Page[*models.Post], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Posts.ByAuthor(ctx, authorID, skip, limit)
}

func (s *PostService) ByTag(ctx context.Context, tag string, skip, limit int64) (*repository.Page[*models.Post], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Posts.ByTag(ctx, tag, skip, limit)
}

func (s *PostService) Search(ctx context.Context, term string, limit int64) ([]repository.ScoredPost, error) {
	_, limit = Bounds(0, limit)
	return s.stores.Posts.Search(ctx, term, limit)
}

// TrendingTags counts tags on posts from the last week.
func (s *PostService) TrendingTags(ctx context.Context, limit int64) ([]query.GroupCount, error) {
	_, limit = Bounds(0, limit)
	return s.stores.Posts.TrendingTags(ctx, s.now().Add(-trendingWindow), limit)
}

func (s *PostService) Activity(ctx context.Context, authorID bson.ObjectID, unit string, from, to *time.Time) ([]query.TimeBucket, error) {
	b, err := parseBucket(unit)
	if err != nil {
		return nil, err
	}
	return s.stores.Posts.Activity(ctx, authorID, b, from, to)
}
