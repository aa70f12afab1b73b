package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func author() models.UserRef {
	return models.UserRef{ID: bson.NewObjectID(), Username: "ana"}
}

func album() models.AlbumRef {
	return models.AlbumRef{ID: bson.NewObjectID(), Title: "Blue Train", ArtistName: "John Coltrane"}
}

func newScratch(t *testing.T, rating int) *models.Scratch {
	t.Helper()
	s, err := models.NewScratch(author(), album(), rating)
	require.NoError(t, err)
	return s
}

func scratches(t *testing.T) *repository.Repository[models.Scratch, *models.Scratch] {
	t.Helper()
	return repository.New[models.Scratch](testutil.DB(t))
}

func TestCreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	s := newScratch(t, 7)
	created, err := repo.Create(ctx, s)
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())
	assert.Equal(t, int64(1), created.Version)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.Before(created.CreatedAt))

	got, err := repo.GetByHex(ctx, created.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.Rating)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	before := got.UpdatedAt
	_, err = got.SetRating(9, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, got))
	assert.True(t, got.UpdatedAt.After(before))
	assert.Equal(t, int64(2), got.Version)

	reloaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, reloaded.Rating)
	assert.Equal(t, got.UpdatedAt, reloaded.UpdatedAt)

	removed, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	gone, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	again, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	_, err := repo.Create(ctx, nil)
	assert.ErrorIs(t, err, repository.ErrNilDocument)

	s := newScratch(t, 5)
	s.ID = bson.NewObjectID()
	_, err = repo.Create(ctx, s)
	assert.ErrorIs(t, err, repository.ErrIdentityAssigned)
}

func TestMissingDocumentsAreNotErrors(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	for _, hex := range []string{"", "not-an-id", "zzzzzzzzzzzzzzzzzzzzzzzz", bson.NewObjectID().Hex()} {
		got, err := repo.GetByHex(ctx, hex)
		require.NoError(t, err, hex)
		assert.Nil(t, got, hex)
	}

	removed, err := repo.DeleteHex(ctx, "bogus")
	require.NoError(t, err)
	assert.False(t, removed)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	found, err := repo.Find(ctx, bson.M{"rating": 10})
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestUpdateMissingAndStale(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	ghost := newScratch(t, 3)
	ghost.ID = bson.NewObjectID()
	ghost.Version = 1
	assert.ErrorIs(t, repo.Update(ctx, ghost), repository.ErrNotFound)

	s, err := repo.Create(ctx, newScratch(t, 4))
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)

	first.SetReview("first writer", time.Now())
	require.NoError(t, repo.Update(ctx, first))

	second.SetReview("second writer", time.Now())
	touched := second.UpdatedAt
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
	assert.Equal(t, int64(1), second.Version)
	assert.Equal(t, touched, second.UpdatedAt)

	stored, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", stored.Review)
}

func TestPaginate(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	docs := make([]*models.Scratch, 25)
	for i := range docs {
		docs[i] = newScratch(t, i%11)
	}
	ids, err := repo.CreateMany(ctx, docs)
	require.NoError(t, err)
	require.Len(t, ids, 25)

	sort := query.StableSort(query.Asc("rating"))
	var seen []bson.ObjectID
	want := []struct {
		items int
		more  bool
	}{{10, true}, {10, true}, {5, false}}

	var skip int64
	for _, w := range want {
		page, err := repo.Paginate(ctx, bson.M{}, sort, skip, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(25), page.Total)
		assert.Len(t, page.Items, w.items)
		assert.Equal(t, w.more, page.HasNextPage)
		for _, d := range page.Items {
			seen = append(seen, d.ID)
		}
		skip = page.NextSkip()
	}
	assert.ElementsMatch(t, ids, seen)

	_, err = repo.Paginate(ctx, nil, nil, 0, 0)
	assert.ErrorIs(t, err, repository.ErrInvalidLimit)
}

func TestGetPagedDefaultsToNewestFirst(t *testing.T) {
	ctx := context.Background()
	tick := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := repository.New[models.Scratch](testutil.DB(t), repository.WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))

	var last bson.ObjectID
	for i := 0; i < 3; i++ {
		s, err := repo.Create(ctx, newScratch(t, i))
		require.NoError(t, err)
		last = s.ID
	}

	page, err := repo.GetPaged(ctx, nil, "", query.Descending, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, last, page[0].ID)
}

func TestGetAllAndIterate(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	docs := make([]*models.Scratch, 7)
	for i := range docs {
		docs[i] = newScratch(t, i)
	}
	_, err := repo.CreateMany(ctx, docs)
	require.NoError(t, err)

	_, err = repo.GetAll(ctx, 0)
	assert.ErrorIs(t, err, repository.ErrInvalidLimit)

	some, err := repo.GetAll(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, some, 5)

	stop := errors.New("stop")
	var visited int
	last, err := repo.Iterate(ctx, nil, 2, bson.NilObjectID, func(*models.Scratch) error {
		if visited == 3 {
			return stop
		}
		visited++
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, docs[2].ID, last)

	var rest int
	_, err = repo.Iterate(ctx, nil, 2, last, func(*models.Scratch) error {
		rest++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rest)
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[models.Tag](testutil.DB(t))

	tag := models.NewTag("#Jazz")
	inserted, err := repo.Upsert(ctx, bson.M{"name": tag.Name}, tag)
	require.NoError(t, err)
	require.False(t, inserted.ID.IsZero())
	assert.Equal(t, int64(1), inserted.Version)
	created := inserted.CreatedAt

	again := models.NewTag("jazz")
	again.UsageCount = 4
	updated, err := repo.Upsert(ctx, bson.M{"name": "jazz"}, again)
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, updated.ID)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, int64(4), updated.UsageCount)
	assert.Equal(t, int64(2), updated.Version)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUpsertClearsTombstone(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	s, err := repo.Create(ctx, newScratch(t, 5))
	require.NoError(t, err)
	ok, err := repo.SoftDelete(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, ok)

	live, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, live.DeletedAt)
	live.Restore(time.Now())

	out, err := repo.Upsert(ctx, query.ByID(s.ID), live)
	require.NoError(t, err)
	assert.False(t, out.IsDeleted)
	assert.Nil(t, out.DeletedAt)

	stored, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, stored.Deleted())
	assert.Nil(t, stored.DeletedAt)
}

func TestCreateRejectsAssignedIdentity(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	s, err := repo.Create(ctx, newScratch(t, 5))
	require.NoError(t, err)
	_, err = repo.Create(ctx, s)
	assert.ErrorIs(t, err, repository.ErrIdentityAssigned)
}

func TestUpdatePartialAndWhere(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	s, err := repo.Create(ctx, newScratch(t, 6))
	require.NoError(t, err)
	liker := bson.NewObjectID()

	like := query.AddToArray("likedBy", liker).Inc("stats.likesCount", 1)
	out, err := repo.UpdateWhere(ctx, s.ID, bson.M{"likedBy": bson.M{"$ne": liker}}, like)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, int64(1), out.Stats.LikesCount)
	assert.Equal(t, int64(2), out.Version)
	assert.False(t, out.UpdatedAt.Before(s.UpdatedAt))

	dup, err := repo.UpdateWhere(ctx, s.ID, bson.M{"likedBy": bson.M{"$ne": liker}}, like)
	require.NoError(t, err)
	assert.Nil(t, dup)

	missing, err := repo.UpdatePartial(ctx, bson.NewObjectID(), query.Increment("stats.likesCount", 1))
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.UpdatePartial(ctx, bson.NilObjectID, nil)
	assert.ErrorIs(t, err, repository.ErrEmptyID)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	s, err := repo.Create(ctx, newScratch(t, 8))
	require.NoError(t, err)

	ok, err := repo.SoftDelete(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SoftDelete(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedAt)

	live, err := repo.Count(ctx, query.NotDeleted())
	require.NoError(t, err)
	assert.Zero(t, live)

	ok, err = repo.Restore(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	restored, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)

	tags := repository.New[models.Tag](testutil.DB(t))
	_, err = tags.SoftDelete(ctx, bson.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotSoftDeletable)
}

func TestBulkOperations(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	ids, err := repo.CreateMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	docs := []*models.Scratch{newScratch(t, 2), newScratch(t, 4), newScratch(t, 9)}
	_, err = repo.CreateMany(ctx, docs)
	require.NoError(t, err)

	n, err := repo.UpdateMany(ctx, bson.M{"rating": bson.M{"$lt": 5}}, query.NewUpdate().Set("review", "meh"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.ReplaceMany(ctx, nil)
	assert.ErrorIs(t, err, repository.ErrEmptyBatch)
	_, err = repo.ReplaceMany(ctx, []*models.Scratch{newScratch(t, 1)})
	assert.ErrorIs(t, err, repository.ErrMissingIdentity)

	current, err := repo.Find(ctx, nil)
	require.NoError(t, err)
	for _, d := range current {
		d.SetReview("rewritten", time.Now())
	}
	stale := current[0]
	stale.Version = 99
	matched, err := repo.ReplaceMany(ctx, current)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
	assert.Equal(t, int64(2), matched)

	rewritten, err := repo.Count(ctx, bson.M{"review": "rewritten"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rewritten)

	deleted, err := repo.DeleteMany(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	repo := scratches(t)

	docs := make([]*models.Scratch, 0, 6)
	for _, r := range []int{7, 7, 9, 9, 9, 3} {
		docs = append(docs, newScratch(t, r))
	}
	_, err := repo.CreateMany(ctx, docs)
	require.NoError(t, err)

	groups, err := repository.AggregateInto[query.GroupCount](ctx, repo, query.GroupByCount(nil, "rating"))
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.EqualValues(t, 9, groups[0].Key)
	assert.Equal(t, int64(3), groups[0].Count)

	top, err := repo.AggregateSingle(ctx, mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "rating", Value: -1}}}},
		{{Key: "$limit", Value: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, 9, top.Rating)

	none, err := repo.AggregateSingle(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"rating": 10}}},
	})
	require.NoError(t, err)
	assert.Nil(t, none)

	low, err := repo.Aggregate(ctx, mongo.Pipeline{{{Key: "$match", Value: bson.M{"rating": bson.M{"$lt": 5}}}}})
	require.NoError(t, err)
	assert.Len(t, low, 1)
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	testutil.RequireTransactions(t, db)

	repo := repository.New[models.Scratch](db)
	tags := repository.New[models.Tag](db)
	_, err := tags.Create(ctx, models.NewTag("seed"))
	require.NoError(t, err)

	err = repo.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.Create(ctx, newScratch(t, 5)); err != nil {
			return err
		}
		if _, err := tags.Create(ctx, models.NewTag("rolled-back")); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = tags.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = repo.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, newScratch(t, 5))
		return err
	})
	require.NoError(t, err)
	n, err = repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
