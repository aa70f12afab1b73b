package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type UserService struct {
	db            *database.Context
	stores        *repository.Stores
	notifications *NotificationService
	now           func() time.Time
}

func NewUserService(db *database.Context, stores *repository.Stores, notifications *NotificationService) *UserService {
	return &UserService{db: db, stores: stores, notifications: notifications, now: models.Now}
}

func (s *UserService) Profile(ctx context.Context, userID bson.ObjectID) (*models.User, error) {
	return load(ctx, s.stores.Users.Repository, userID, ErrUserNotFound)
}

// Lookup resolves a user by hex id or, failing that, by username.
func (s *UserService) Lookup(ctx context.Context, idOrUsername string) (*models.User, error) {
	if id, ok := models.ParseID(idOrUsername); ok {
		return s.Profile(ctx, id)
	}
	u, err := s.stores.Users.GetByUsername(ctx, idOrUsername)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile replaces the profile fields. A nil FavoriteGenres leaves the
// genre list alone; a non-nil one replaces it.
func (s *UserService) UpdateProfile(ctx context.Context, userID bson.ObjectID, req *dto.UpdateProfileRequest) (*models.User, error) {
	return mutate(ctx, s.stores.Users.Repository, userID, ErrUserNotFound, func(u *models.User) error {
		now := s.now()
		u.SetProfile(req.DisplayName, req.Bio, req.AvatarURL, now)
		if req.FavoriteGenres == nil {
			return nil
		}
		keep := make(map[string]bool, len(req.FavoriteGenres))
		for _, g := range req.FavoriteGenres {
			if _, err := u.AddFavoriteGenre(g, now); err != nil {
				return err
			}
			keep[strings.ToLower(strings.TrimSpace(g))] = true
		}
		for _, g := range append([]string(nil), u.FavoriteGenres...) {
			if !keep[strings.ToLower(g)] {
				u.RemoveFavoriteGenre(g, now)
			}
		}
		return nil
	})
}

// Follow creates the edge and bumps both users' counters atomically.
func (s *UserService) Follow(ctx context.Context, followerID bson.ObjectID, followeeHex string) error {
	followeeID, err := parseID(followeeHex, ErrUserNotFound)
	if err != nil {
		return err
	}
	if followerID == followeeID {
		return ErrSelfFollow
	}
	follower, err := load(ctx, s.stores.Users.Repository, followerID, ErrUserNotFound)
	if err != nil {
		return err
	}
	followee, err := load(ctx, s.stores.Users.Repository, followeeID, ErrUserNotFound)
	if err != nil {
		return err
	}
	edge, err := models.NewFollow(follower.Ref(), followee.Ref())
	if err != nil {
		return err
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := insert(ctx, s.stores.Follows.Repository, edge); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrAlreadyFollowing
			}
			return err
		}
		if _, err := s.stores.Users.IncrementStat(ctx, followeeID, repository.StatFollowers, 1); err != nil {
			return err
		}
		_, err := s.stores.Users.IncrementStat(ctx, followerID, repository.StatFollowing, 1)
		return err
	})
	if err != nil {
		return err
	}

	ref := follower.Ref()
	s.notifications.notifyQuietly(ctx, followeeID, models.NotificationFollow, &ref,
		&models.TargetRef{Type: models.TargetUser, ID: followerID},
		fmt.Sprintf("%s started following you", follower.Username))
	return nil
}

func (s *UserService) Unfollow(ctx context.Context, followerID bson.ObjectID, followeeHex string) error {
	followeeID, err := parseID(followeeHex, ErrUserNotFound)
	if err != nil {
		return err
	}
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		removed, err := s.stores.Follows.Remove(ctx, followerID, followeeID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotFollowing
		}
		if _, err := s.stores.Users.IncrementStat(ctx, followeeID, repository.StatFollowers, -1); err != nil {
			return err
		}
		_, err = s.stores.Users.IncrementStat(ctx, followerID, repository.StatFollowing, -1)
		return err
	})
}

func (s *UserService) IsFollowing(ctx context.Context, followerID, followeeID bson.ObjectID) (bool, error) {
	return s.stores.Follows.IsFollowing(ctx, followerID, followeeID)
}

func (s *UserService) Followers(ctx context.Context, userID bson.ObjectID, skip, limit int64) (*repository.Page[*models.Follow], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Follows.Followers(ctx, userID, skip, limit)
}

func (s *UserService) Following(ctx context.Context, userID bson.ObjectID, skip, limit int64) (*repository.Page[*models.Follow], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Follows.Following(ctx, userID, skip, limit)
}

func (s *UserService) Search(ctx context.Context, term string, skip, limit int64) (*repository.Page[*models.User], error) {
	skip, limit = Bounds(skip, limit)
	return s.stores.Users.Search(ctx, term, skip, limit)
}

func (s *UserService) Badges(ctx context.Context) ([]*models.Badge, error) {
	return s.stores.Badges.Active(ctx)
}

func (s *UserService) CreateBadge(ctx context.Context, req *dto.CreateBadgeRequest) (*models.Badge, error) {
	b, err := models.NewBadge(req.Name, req.Description, req.Tier)
	if err != nil {
		return nil, err
	}
	b.IconURL = req.IconURL
	if _, err := s.stores.Badges.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create badge: %w", err)
	}
	return b, nil
}

// AwardBadge embeds the badge in the user and counts the award in one
// transaction. Awarding a badge twice fails with ErrBadgeAwarded.
func (s *UserService) AwardBadge(ctx context.Context, req *dto.AwardBadgeRequest) (*models.User, error) {
	userID, err := parseID(req.UserID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	badgeID, err := parseID(req.BadgeID, ErrBadgeNotFound)
	if err != nil {
		return nil, err
	}
	badge, err := load(ctx, s.stores.Badges.Repository, badgeID, ErrBadgeNotFound)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		u, err := mutate(ctx, s.stores.Users.Repository, userID, ErrUserNotFound, func(u *models.User) error {
			added, err := u.AddBadge(badge.Earned(now), now)
			if err != nil {
				return err
			}
			if !added {
				return ErrBadgeAwarded
			}
			return nil
		})
		if err != nil {
			return err
		}
		user = u
		_, err = mutate(ctx, s.stores.Badges.Repository, badgeID, ErrBadgeNotFound, func(b *models.Badge) error {
			b.Award(now)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.notifyQuietly(ctx, userID, models.NotificationBadge, nil,
		&models.TargetRef{Type: models.TargetUser, ID: userID},
		fmt.Sprintf("You earned the %s badge", badge.Name))
	return user, nil
}
