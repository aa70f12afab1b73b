package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CreateMany inserts docs in order and returns their identities. An empty
// batch is a no-op.
func (r *Repository[T, P]) CreateMany(ctx context.Context, docs []P) ([]bson.ObjectID, error) {
	const op = "create_many"
	if len(docs) == 0 {
		return nil, nil
	}
	now := r.clock()
	for _, d := range docs {
		if d == nil {
			return nil, ErrNilDocument
		}
		if !d.GetID().IsZero() {
			return nil, ErrIdentityAssigned
		}
		d.SetCreatedAt(now)
		d.Touch(now)
		d.SetVersion(1)
	}

	start := time.Now()
	res, err := r.coll.InsertMany(ctx, docs)
	r.observe(op, start, err)
	if err != nil {
		return nil, r.fail(op, err, "count", len(docs))
	}
	ids := make([]bson.ObjectID, 0, len(res.InsertedIDs))
	for i, raw := range res.InsertedIDs {
		id, _ := raw.(bson.ObjectID)
		if i < len(docs) {
			docs[i].SetID(id)
		}
		ids = append(ids, id)
	}
	r.logger.Info("documents created", "count", len(ids))
	return ids, nil
}

// UpdateMany applies u to every match. The built update refreshes
// updatedAt and increments version on each document.
func (r *Repository[T, P]) UpdateMany(ctx context.Context, filter bson.M, u *query.Update) (int64, error) {
	const op = "update_many"
	if u == nil {
		u = query.NewUpdate()
	}
	start := time.Now()
	res, err := r.coll.UpdateMany(ctx, orAll(filter), u.Build(r.clock()))
	r.observe(op, start, err)
	if err != nil {
		return 0, r.fail(op, err)
	}
	r.logger.Info("documents updated", "matched", res.MatchedCount, "modified", res.ModifiedCount)
	return res.ModifiedCount, nil
}

func (r *Repository[T, P]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	const op = "delete_many"
	start := time.Now()
	res, err := r.coll.DeleteMany(ctx, orAll(filter))
	r.observe(op, start, err)
	if err != nil {
		return 0, r.fail(op, err)
	}
	if res.DeletedCount > 0 {
		r.logger.Info("documents deleted", "count", res.DeletedCount)
	}
	return res.DeletedCount, nil
}

// ReplaceMany fully replaces each document at its expected version in one
// unordered bulk write. Every document must already have an identity. If
// any document was missing or stale the matched count is returned with
// ErrVersionConflict; the others are still written.
func (r *Repository[T, P]) ReplaceMany(ctx context.Context, docs []P) (int64, error) {
	const op = "replace_many"
	if len(docs) == 0 {
		return 0, ErrEmptyBatch
	}
	for _, d := range docs {
		if d == nil {
			return 0, ErrNilDocument
		}
		if d.GetID().IsZero() {
			return 0, ErrMissingIdentity
		}
	}

	now := r.clock()
	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, d := range docs {
		expected := d.GetVersion()
		d.Touch(now)
		d.SetVersion(expected + 1)
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(versionFilter(d.GetID(), expected)).
			SetReplacement(d))
	}

	start := time.Now()
	res, err := r.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	r.observe(op, start, err)
	if err != nil {
		return 0, r.fail(op, err, "count", len(docs))
	}
	r.logger.Info("documents replaced", "matched", res.MatchedCount, "modified", res.ModifiedCount)
	if res.MatchedCount < int64(len(docs)) {
		return res.MatchedCount, fmt.Errorf("%w: %d of %d documents missing or stale",
			ErrVersionConflict, int64(len(docs))-res.MatchedCount, len(docs))
	}
	return res.MatchedCount, nil
}
