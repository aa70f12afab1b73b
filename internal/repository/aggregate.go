package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// AggregateCursor runs pipeline as given. The caller closes the cursor.
func (r *Repository[T, P]) AggregateCursor(ctx context.Context, pipeline mongo.Pipeline) (*mongo.Cursor, error) {
	const op = "aggregate"
	start := time.Now()
	cur, err := r.coll.Aggregate(ctx, pipeline)
	r.observe(op, start, err)
	if err != nil {
		return nil, r.fail(op, err, "stages", len(pipeline))
	}
	return cur, nil
}

// Aggregate runs pipeline and decodes each result as T.
func (r *Repository[T, P]) Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]P, error) {
	cur, err := r.AggregateCursor(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll[T, P](ctx, cur)
	if err != nil {
		return nil, r.fail("aggregate", err)
	}
	return docs, nil
}

// AggregateSingle returns the first pipeline result or nil.
func (r *Repository[T, P]) AggregateSingle(ctx context.Context, pipeline mongo.Pipeline) (P, error) {
	cur, err := r.AggregateCursor(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, r.fail("aggregate", err)
		}
		return nil, nil
	}
	doc := P(new(T))
	if err := cur.Decode(doc); err != nil {
		return nil, r.fail("aggregate", err)
	}
	return doc, nil
}

// Aggregator is anything that can run a pipeline; every Repository is one.
type Aggregator interface {
	AggregateCursor(ctx context.Context, pipeline mongo.Pipeline) (*mongo.Cursor, error)
}

// AggregateInto runs pipeline through src and decodes results as R, for
// pipelines whose output is not the document type (groups, buckets).
func AggregateInto[R any](ctx context.Context, src Aggregator, pipeline mongo.Pipeline) ([]R, error) {
	cur, err := src.AggregateCursor(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := make([]R, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation: %w", err)
	}
	return out, nil
}

// WithTransaction runs fn in a multi-document transaction. Every store call
// inside fn must use the context fn receives.
func (r *Repository[T, P]) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := r.db.WithTransaction(ctx, fn); err != nil {
		return r.fail("transaction", err)
	}
	return nil
}
