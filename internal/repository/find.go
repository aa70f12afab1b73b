package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Find returns every match; an empty result is an empty slice.
func (r *Repository[T, P]) Find(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOptions]) ([]P, error) {
	return r.find(ctx, "find", filter, opts...)
}

// FindOne returns the first match or nil.
func (r *Repository[T, P]) FindOne(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (P, error) {
	return r.findOne(ctx, "find_one", filter, opts...)
}

func (r *Repository[T, P]) find(ctx context.Context, op string, filter bson.M, opts ...options.Lister[options.FindOptions]) ([]P, error) {
	start := time.Now()
	cur, err := r.coll.Find(ctx, orAll(filter), opts...)
	if err != nil {
		r.observe(op, start, err)
		return nil, r.fail(op, err)
	}
	docs, err := decodeAll[T, P](ctx, cur)
	r.observe(op, start, err)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return docs, nil
}

func (r *Repository[T, P]) findOne(ctx context.Context, op string, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (P, error) {
	start := time.Now()
	doc := P(new(T))
	err := r.coll.FindOne(ctx, orAll(filter), opts...).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		r.observe(op, start, nil)
		return nil, nil
	}
	r.observe(op, start, err)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return doc, nil
}

func decodeAll[T any, P models.DocumentPtr[T]](ctx context.Context, cur *mongo.Cursor) ([]P, error) {
	defer cur.Close(ctx)
	out := make([]P, 0)
	for cur.Next(ctx) {
		doc := P(new(T))
		if err := cur.Decode(doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, cur.Err()
}

// GetAll returns at most limit documents in identity order. Use Iterate to
// walk a whole collection.
func (r *Repository[T, P]) GetAll(ctx context.Context, limit int64) ([]P, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(limit)
	return r.find(ctx, "get_all", bson.M{}, opts)
}

// Iterate streams documents matching filter in identity order, starting
// after resumeAfter (zero starts at the beginning). It returns the id of the
// last document fn accepted, which resumes the walk after an interruption.
func (r *Repository[T, P]) Iterate(ctx context.Context, filter bson.M, batchSize int32, resumeAfter bson.ObjectID, fn func(P) error) (bson.ObjectID, error) {
	const op = "iterate"
	f := orAll(filter)
	if !resumeAfter.IsZero() {
		f = query.And(f, bson.M{"_id": bson.M{"$gt": resumeAfter}})
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if batchSize > 0 {
		opts.SetBatchSize(batchSize)
	}

	start := time.Now()
	cur, err := r.coll.Find(ctx, f, opts)
	r.observe(op, start, err)
	if err != nil {
		return resumeAfter, r.fail(op, err)
	}
	defer cur.Close(ctx)

	last := resumeAfter
	for cur.Next(ctx) {
		doc := P(new(T))
		if err := cur.Decode(doc); err != nil {
			return last, r.fail(op, err, "after", last.Hex())
		}
		if err := fn(doc); err != nil {
			return last, err
		}
		last = doc.GetID()
	}
	if err := cur.Err(); err != nil {
		return last, r.fail(op, err, "after", last.Hex())
	}
	return last, nil
}

// GetPaged returns one page sorted by sortField (newest first when blank).
// skip and limit are used as given; a zero limit means no limit.
func (r *Repository[T, P]) GetPaged(ctx context.Context, filter bson.M, sortField string, dir query.Direction, skip, limit int64) ([]P, error) {
	opts := options.Find().SetSort(query.Sort(query.SortField{Field: sortField, Direction: dir}))
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, "get_paged", filter, opts)
}

// Paginate returns one page plus the total count in a single round trip.
func (r *Repository[T, P]) Paginate(ctx context.Context, filter bson.M, sort bson.D, skip, limit int64) (*Page[P], error) {
	const op = "paginate"
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if skip < 0 {
		skip = 0
	}
	cur, err := r.AggregateCursor(ctx, query.PaginateWithCount(filter, sort, skip, limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var res query.PageResult[T]
	if cur.Next(ctx) {
		if err := cur.Decode(&res); err != nil {
			return nil, r.fail(op, err)
		}
	} else if err := cur.Err(); err != nil {
		return nil, r.fail(op, err)
	}

	items := make([]P, len(res.Items))
	for i := range res.Items {
		items[i] = P(&res.Items[i])
	}
	return &Page[P]{Items: items, Total: res.Total, HasNextPage: res.HasNextPage, Skip: skip, Limit: limit}, nil
}

func (r *Repository[T, P]) Count(ctx context.Context, filter bson.M) (int64, error) {
	const op = "count"
	start := time.Now()
	n, err := r.coll.CountDocuments(ctx, orAll(filter))
	r.observe(op, start, err)
	if err != nil {
		return 0, r.fail(op, err)
	}
	return n, nil
}

func (r *Repository[T, P]) Exists(ctx context.Context, filter bson.M) (bool, error) {
	const op = "exists"
	start := time.Now()
	n, err := r.coll.CountDocuments(ctx, orAll(filter), options.Count().SetLimit(1))
	r.observe(op, start, err)
	if err != nil {
		return false, r.fail(op, err)
	}
	return n > 0, nil
}
