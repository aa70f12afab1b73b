package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Repository is the CRUD, query, bulk, aggregation and transaction engine
// for one document type bound to one collection. P is always *T; it is a
// separate parameter so the repository can allocate T and call its
// Document methods.
type Repository[T any, P models.DocumentPtr[T]] struct {
	db       *database.Context
	coll     *mongo.Collection
	name     string
	logger   *slog.Logger
	observer database.Observer
	now      func() time.Time
}

type settings struct {
	collection string
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*settings)

// WithCollection overrides the conventional collection name.
func WithCollection(name string) Option {
	return func(s *settings) { s.collection = name }
}

// WithLogger replaces the database context's logger for this repository.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithClock replaces models.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// New binds a repository for T to db. The collection name follows
// database.CollectionName unless overridden.
func New[T any, P models.DocumentPtr[T]](db *database.Context, opts ...Option) *Repository[T, P] {
	var zero T
	s := settings{collection: database.CollectionName(zero)}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = db.Logger()
	}
	if s.now == nil {
		s.now = models.Now
	}
	return &Repository[T, P]{
		db:       db,
		coll:     db.Collection(s.collection),
		name:     s.collection,
		logger:   s.logger.With("collection", s.collection),
		observer: db.Observer(),
		now:      s.now,
	}
}

func (r *Repository[T, P]) Name() string                  { return r.name }
func (r *Repository[T, P]) Collection() *mongo.Collection { return r.coll }

func (r *Repository[T, P]) clock() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func (r *Repository[T, P]) observe(op string, start time.Time, err error) {
	r.observer.ObserveOperation(r.name, op, time.Since(start), err)
}

// fail logs err with context and returns it unchanged.
func (r *Repository[T, P]) fail(op string, err error, attrs ...any) error {
	r.logger.Error("store operation failed", append([]any{"operation", op, "error", err}, attrs...)...)
	return err
}

func orAll(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

// versionFilter matches id at the expected version. Documents written
// before versioning have no field and count as version 0.
func versionFilter(id bson.ObjectID, expected int64) bson.M {
	if expected == 0 {
		return bson.M{"_id": id, "$or": bson.A{
			bson.M{"version": int64(0)},
			bson.M{"version": bson.M{"$exists": false}},
		}}
	}
	return bson.M{"_id": id, "version": expected}
}

// GetByID returns the document or nil when none exists.
func (r *Repository[T, P]) GetByID(ctx context.Context, id bson.ObjectID) (P, error) {
	if id.IsZero() {
		return nil, nil
	}
	return r.findOne(ctx, "get_by_id", query.ByID(id))
}

// GetByHex accepts the external string form. Malformed input is logged and
// treated as absence.
func (r *Repository[T, P]) GetByHex(ctx context.Context, hex string) (P, error) {
	id, ok := models.ParseID(hex)
	if !ok {
		r.logger.Warn("invalid document id", "id", hex)
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// Create assigns timestamps and version 1, inserts doc and sets the
// store-assigned identity on it.
func (r *Repository[T, P]) Create(ctx context.Context, doc P) (P, error) {
	const op = "create"
	if doc == nil {
		return nil, ErrNilDocument
	}
	if !doc.GetID().IsZero() {
		return nil, ErrIdentityAssigned
	}
	now := r.clock()
	doc.SetCreatedAt(now)
	doc.Touch(now)
	doc.SetVersion(1)

	start := time.Now()
	res, err := r.coll.InsertOne(ctx, doc)
	r.observe(op, start, err)
	if err != nil {
		return nil, r.fail(op, err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		doc.SetID(id)
	}
	r.logger.Info("document created", "id", doc.GetID().Hex())
	return doc, nil
}

// Update replaces the stored document with doc if the stored version still
// equals doc's version. On success doc carries the new version and a
// strictly later UpdatedAt. A missing document yields ErrNotFound and a
// stale one ErrVersionConflict.
func (r *Repository[T, P]) Update(ctx context.Context, doc P) error {
	const op = "update"
	if doc == nil {
		return ErrNilDocument
	}
	id := doc.GetID()
	if id.IsZero() {
		return ErrEmptyID
	}
	expected, touched := doc.GetVersion(), doc.GetUpdatedAt()
	doc.Touch(r.clock())
	doc.SetVersion(expected + 1)
	rollback := func() {
		doc.SetVersion(expected)
		doc.SetUpdatedAt(touched)
	}

	start := time.Now()
	res, err := r.coll.ReplaceOne(ctx, versionFilter(id, expected), doc)
	r.observe(op, start, err)
	if err != nil {
		rollback()
		return r.fail(op, err, "id", id.Hex())
	}
	if res.MatchedCount == 0 {
		rollback()
		return r.missOrConflict(ctx, op, id, expected)
	}
	r.logger.Info("document updated", "id", id.Hex(), "version", expected+1)
	return nil
}

func (r *Repository[T, P]) missOrConflict(ctx context.Context, op string, id bson.ObjectID, expected int64) error {
	exists, err := r.Exists(ctx, query.ByID(id))
	if err != nil {
		return err
	}
	if !exists {
		r.logger.Warn("update target not found", "operation", op, "id", id.Hex())
		return ErrNotFound
	}
	r.logger.Warn("version conflict", "operation", op, "id", id.Hex(), "expected_version", expected)
	return ErrVersionConflict
}

// Delete removes the document and reports whether one was removed.
func (r *Repository[T, P]) Delete(ctx context.Context, id bson.ObjectID) (bool, error) {
	const op = "delete"
	if id.IsZero() {
		return false, nil
	}
	start := time.Now()
	res, err := r.coll.DeleteOne(ctx, query.ByID(id))
	r.observe(op, start, err)
	if err != nil {
		return false, r.fail(op, err, "id", id.Hex())
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	r.logger.Info("document deleted", "id", id.Hex())
	return true, nil
}

// DeleteHex is Delete for the external string form.
func (r *Repository[T, P]) DeleteHex(ctx context.Context, hex string) (bool, error) {
	id, ok := models.ParseID(hex)
	if !ok {
		r.logger.Warn("invalid document id", "id", hex)
		return false, nil
	}
	return r.Delete(ctx, id)
}

// Upsert updates the document matching filter with doc's fields, or
// inserts it. CreatedAt is kept on existing documents and set on new ones;
// UpdatedAt is always refreshed and version incremented. doc is overwritten
// with the stored result.
func (r *Repository[T, P]) Upsert(ctx context.Context, filter bson.M, doc P) (P, error) {
	const op = "upsert"
	if doc == nil {
		return nil, ErrNilDocument
	}
	now := r.clock()
	if doc.GetCreatedAt().IsZero() {
		doc.SetCreatedAt(now)
	}
	doc.Touch(now)

	fields, err := toFields(doc)
	if err != nil {
		return nil, r.fail(op, err)
	}
	onInsert := bson.M{"createdAt": fields["createdAt"]}
	filter = orAll(filter)
	if id := doc.GetID(); !id.IsZero() {
		if _, keyed := filter["_id"]; !keyed {
			onInsert["_id"] = id
		}
	}
	delete(fields, "_id")
	delete(fields, "createdAt")
	delete(fields, "version")

	update := bson.M{
		"$set":         fields,
		"$setOnInsert": onInsert,
		"$inc":         bson.M{"version": int64(1)},
	}
	// A live replacement must not keep an old tombstone time.
	if _, tombstoned := fields["deletedAt"]; r.softDeletable() && !tombstoned {
		update["$unset"] = bson.M{"deletedAt": ""}
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	start := time.Now()
	out := P(new(T))
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(out)
	r.observe(op, start, err)
	if err != nil {
		return nil, r.fail(op, err)
	}
	*doc = *out
	r.logger.Info("document upserted", "id", doc.GetID().Hex(), "version", doc.GetVersion())
	return doc, nil
}

func toFields(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// UpdatePartial applies u to one document and returns the result, or nil
// when no document has that id.
func (r *Repository[T, P]) UpdatePartial(ctx context.Context, id bson.ObjectID, u *query.Update) (P, error) {
	return r.updateOne(ctx, "update_partial", query.ByID(id), id, u)
}

// UpdateWhere is UpdatePartial with extra conditions on the target, for
// guarded writes such as "only if not already liked". It returns nil when
// the conditions do not hold.
func (r *Repository[T, P]) UpdateWhere(ctx context.Context, id bson.ObjectID, cond bson.M, u *query.Update) (P, error) {
	return r.updateOne(ctx, "update_where", query.And(query.ByID(id), cond), id, u)
}

func (r *Repository[T, P]) updateOne(ctx context.Context, op string, filter bson.M, id bson.ObjectID, u *query.Update) (P, error) {
	if id.IsZero() {
		return nil, ErrEmptyID
	}
	if u == nil {
		u = query.NewUpdate()
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	start := time.Now()
	out := P(new(T))
	err := r.coll.FindOneAndUpdate(ctx, filter, u.Build(r.clock()), opts).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		r.observe(op, start, nil)
		return nil, nil
	}
	r.observe(op, start, err)
	if err != nil {
		return nil, r.fail(op, err, "id", id.Hex())
	}
	r.logger.Info("document updated", "id", id.Hex(), "version", out.GetVersion())
	return out, nil
}

func (r *Repository[T, P]) softDeletable() bool {
	_, ok := any(P(new(T))).(models.SoftDeletable)
	return ok
}

// SoftDelete tombstones the document. It reports false when the document
// does not exist or is already deleted.
func (r *Repository[T, P]) SoftDelete(ctx context.Context, id bson.ObjectID) (bool, error) {
	if !r.softDeletable() {
		return false, ErrNotSoftDeletable
	}
	now := r.clock()
	u := query.NewUpdate().Set("isDeleted", true).Set("deletedAt", now)
	return r.flag(ctx, "soft_delete", "document soft deleted", id, bson.M{"isDeleted": bson.M{"$ne": true}}, u, now)
}

// Restore clears the tombstone. It reports false when the document does
// not exist or is not deleted.
func (r *Repository[T, P]) Restore(ctx context.Context, id bson.ObjectID) (bool, error) {
	if !r.softDeletable() {
		return false, ErrNotSoftDeletable
	}
	u := query.NewUpdate().Set("isDeleted", false).Unset("deletedAt")
	return r.flag(ctx, "restore", "document restored", id, bson.M{"isDeleted": true}, u, r.clock())
}

func (r *Repository[T, P]) flag(ctx context.Context, op, msg string, id bson.ObjectID, cond bson.M, u *query.Update, now time.Time) (bool, error) {
	if id.IsZero() {
		return false, nil
	}
	start := time.Now()
	res, err := r.coll.UpdateOne(ctx, query.And(query.ByID(id), cond), u.Build(now))
	r.observe(op, start, err)
	if err != nil {
		return false, r.fail(op, err, "id", id.Hex())
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}
	r.logger.Info(msg, "id", id.Hex())
	return true, nil
}

// UpsertFields applies u to the document matching filter. When none
// matches, the store inserts one from the filter's equality fields, the
// update and onInsert. The result is the stored document.
func (r *Repository[T, P]) UpsertFields(ctx context.Context, filter bson.M, u *query.Update, onInsert bson.M) (P, error) {
	const op = "upsert_fields"
	if u == nil {
		u = query.NewUpdate()
	}
	now := r.clock()
	update := u.Build(now)
	setOnInsert := bson.M{"createdAt": now}
	for k, v := range onInsert {
		setOnInsert[k] = v
	}
	update["$setOnInsert"] = setOnInsert
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	start := time.Now()
	out := P(new(T))
	err := r.coll.FindOneAndUpdate(ctx, orAll(filter), update, opts).Decode(out)
	r.observe(op, start, err)
	if err != nil {
		return nil, r.fail(op, err)
	}
	r.logger.Info("document upserted", "id", out.GetID().Hex(), "version", out.GetVersion())
	return out, nil
}
