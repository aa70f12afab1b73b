package services

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	conflictRetries = 3
	defaultLimit    = 20
	maxLimit        = 100
)

// mutate loads a document, applies fn and writes it back with a version
// check. When another writer got in first the document is reloaded and fn
// applied again, up to conflictRetries times.
func mutate[T any, P models.DocumentPtr[T]](ctx context.Context, repo *repository.Repository[T, P], id bson.ObjectID, notFound error, fn func(P) error) (P, error) {
	for attempt := 1; ; attempt++ {
		doc, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, notFound
		}
		if err := fn(doc); err != nil {
			return nil, err
		}
		err = repo.Update(ctx, doc)
		switch {
		case err == nil:
			return doc, nil
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound
		case errors.Is(err, repository.ErrVersionConflict) && attempt < conflictRetries:
			continue
		default:
			return nil, err
		}
	}
}

// insert is Create for transaction callbacks, which the driver may run more
// than once. An identity left on doc by an aborted attempt is dropped first.
func insert[T any, P models.DocumentPtr[T]](ctx context.Context, repo *repository.Repository[T, P], doc P) (P, error) {
	doc.SetID(bson.NilObjectID)
	return repo.Create(ctx, doc)
}

// load fetches a live document or returns notFound. Soft-deleted documents
// count as missing.
func load[T any, P models.DocumentPtr[T]](ctx context.Context, repo *repository.Repository[T, P], id bson.ObjectID, notFound error) (P, error) {
	doc, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound
	}
	if sd, ok := any(doc).(models.SoftDeletable); ok && sd.Deleted() {
		return nil, notFound
	}
	return doc, nil
}

func parseID(hex string, notFound error) (bson.ObjectID, error) {
	id, ok := models.ParseID(hex)
	if !ok {
		return bson.NilObjectID, notFound
	}
	return id, nil
}

// Bounds clamps paging input: negative skip becomes 0 and limit falls in
// 1..100, defaulting to 20.
func Bounds(skip, limit int64) (int64, int64) {
	if skip < 0 {
		skip = 0
	}
	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}
	return skip, limit
}

func liveOnly[P interface{ Deleted() bool }](fn func(P) error, notFound error) func(P) error {
	return func(doc P) error {
		if doc.Deleted() {
			return notFound
		}
		return fn(doc)
	}
}

// Actor is the authenticated caller. Admins may act on anyone's content.
type Actor struct {
	ID    bson.ObjectID
	Admin bool
}

func (a Actor) Owns(ownerID bson.ObjectID) bool {
	return a.Admin || a.ID == ownerID
}

func parseBucket(unit string) (query.Bucket, error) {
	if unit == "" {
		return query.BucketDay, nil
	}
	b := query.Bucket(unit)
	if !b.Valid() {
		return "", ErrInvalidBucket
	}
	return b, nil
}
