package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type CommentStore struct {
	*Repository[models.Comment, *models.Comment]
}

func NewCommentStore(db *database.Context, opts ...Option) *CommentStore {
	return &CommentStore{New[models.Comment](db, opts...)}
}

func target(t models.TargetRef) bson.M {
	return query.And(query.Eq("target.type", t.Type), query.Eq("target.id", t.ID))
}

// ByTarget pages live comments on a scratch, playlist or album, oldest
// first.
func (s *CommentStore) ByTarget(ctx context.Context, t models.TargetRef, skip, limit int64) (*Page[*models.Comment], error) {
	filter := query.And(query.NotDeleted(), target(t))
	return s.Paginate(ctx, filter, query.StableSort(query.Asc("createdAt")), skip, limit)
}

func (s *CommentStore) CountByTarget(ctx context.Context, t models.TargetRef) (int64, error) {
	return s.Count(ctx, query.And(query.NotDeleted(), target(t)))
}

type BadgeStore struct {
	*Repository[models.Badge, *models.Badge]
}

func NewBadgeStore(db *database.Context, opts ...Option) *BadgeStore {
	return &BadgeStore{New[models.Badge](db, opts...)}
}

func (s *BadgeStore) GetByName(ctx context.Context, name string) (*models.Badge, error) {
	return s.FindOne(ctx, query.EqualsIgnoreCase("name", name))
}

func (s *BadgeStore) Active(ctx context.Context) ([]*models.Badge, error) {
	return s.Find(ctx, query.Eq("isActive", true))
}

type ReportStore struct {
	*Repository[models.Report, *models.Report]
}

func NewReportStore(db *database.Context, opts ...Option) *ReportStore {
	return &ReportStore{New[models.Report](db, opts...)}
}

// ByStatus pages reports, oldest first so the review queue is worked in
// order. A blank status lists all.
func (s *ReportStore) ByStatus(ctx context.Context, status string, skip, limit int64) (*Page[*models.Report], error) {
	filter := bson.M{}
	if status != "" {
		filter = query.Eq("status", status)
	}
	return s.Paginate(ctx, filter, query.StableSort(query.Asc("createdAt")), skip, limit)
}

func (s *ReportStore) DeleteByReporter(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return s.DeleteMany(ctx, query.Eq("reporter.id", userID))
}

type BlockStore struct {
	*Repository[models.Block, *models.Block]
}

func NewBlockStore(db *database.Context, opts ...Option) *BlockStore {
	return &BlockStore{New[models.Block](db, opts...)}
}

func (s *BlockStore) IsBlocked(ctx context.Context, blocker, blocked bson.ObjectID) (bool, error) {
	return s.Exists(ctx, query.And(query.Eq("blockerId", blocker), query.Eq("blockedId", blocked)))
}

func (s *BlockStore) Remove(ctx context.Context, blocker, blocked bson.ObjectID) (bool, error) {
	n, err := s.DeleteMany(ctx, query.And(query.Eq("blockerId", blocker), query.Eq("blockedId", blocked)))
	return n > 0, err
}

// BlockedIDs returns everyone the user has blocked.
func (s *BlockStore) BlockedIDs(ctx context.Context, blocker bson.ObjectID) ([]bson.ObjectID, error) {
	blocks, err := s.Find(ctx, query.Eq("blockerId", blocker))
	if err != nil {
		return nil, err
	}
	ids := make([]bson.ObjectID, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.BlockedID)
	}
	return ids, nil
}

func (s *BlockStore) RemoveAllFor(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return s.DeleteMany(ctx, query.Or(query.Eq("blockerId", userID), query.Eq("blockedId", userID)))
}

type RefreshTokenStore struct {
	*Repository[models.RefreshToken, *models.RefreshToken]
}

func NewRefreshTokenStore(db *database.Context, opts ...Option) *RefreshTokenStore {
	return &RefreshTokenStore{New[models.RefreshToken](db, opts...)}
}

func (s *RefreshTokenStore) GetByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	return s.FindOne(ctx, query.Eq("tokenHash", hash))
}

// Consume revokes a usable token and returns it. It returns nil when the
// token is unknown, revoked or expired, so a token can be consumed once.
func (s *RefreshTokenStore) Consume(ctx context.Context, hash string, now time.Time) (*models.RefreshToken, error) {
	tok, err := s.GetByHash(ctx, hash)
	if err != nil || tok == nil {
		return nil, err
	}
	if !tok.Usable(now) {
		return nil, nil
	}
	cond := query.And(query.Eq("revoked", false), bson.M{"expiresAt": bson.M{"$gt": now}})
	u := query.NewUpdate().Set("revoked", true).Set("revokedAt", now.UTC().Truncate(time.Millisecond))
	return s.UpdateWhere(ctx, tok.ID, cond, u)
}

// RevokeFamily revokes every live token issued from the same login.
func (s *RefreshTokenStore) RevokeFamily(ctx context.Context, familyID string, now time.Time) (int64, error) {
	filter := query.And(query.Eq("familyId", familyID), query.Eq("revoked", false))
	return s.UpdateMany(ctx, filter, query.NewUpdate().Set("revoked", true).Set("revokedAt", now.UTC().Truncate(time.Millisecond)))
}

func (s *RefreshTokenStore) DeleteForUser(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return s.DeleteMany(ctx, query.Eq("userId", userID))
}
