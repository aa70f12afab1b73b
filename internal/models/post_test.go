package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func testUser(name string) UserRef {
	return UserRef{ID: bson.NewObjectID(), Username: name}
}

func TestNewPostValidation(t *testing.T) {
	_, err := NewPost(testUser("ana"), "   ")
	assert.ErrorIs(t, err, ErrBlankText)

	_, err = NewPost(UserRef{Username: "ghost"}, "hello")
	assert.ErrorIs(t, err, ErrInvalidReference)

	p, err := NewPost(testUser("ana"), "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Content)
	assert.Empty(t, p.Comments)
	assert.NotNil(t, p.Comments)
}

func TestPostCommentLifecycle(t *testing.T) {
	now := Now()
	p, err := NewPost(testUser("ana"), "new record out")
	require.NoError(t, err)

	first, err := p.AddComment(testUser("ben"), "great", now)
	require.NoError(t, err)
	firstID := first.ID
	_, err = p.AddComment(testUser("cid"), "agreed", now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Stats.CommentsCount)

	require.NoError(t, p.SoftDeleteComment(firstID, now))
	assert.Equal(t, int64(1), p.Stats.CommentsCount)
	require.Len(t, p.Comments, 2, "deleted comment stays in the raw list")
	c, ok := p.Comment(firstID)
	require.True(t, ok)
	assert.True(t, c.IsDeleted)
	assert.NotNil(t, c.DeletedAt)
	assert.Len(t, p.ActiveComments(), 1)

	// deleting again is a no-op
	require.NoError(t, p.SoftDeleteComment(firstID, now))
	assert.Equal(t, int64(1), p.Stats.CommentsCount)

	require.NoError(t, p.RestoreComment(firstID, now))
	assert.Equal(t, int64(2), p.Stats.CommentsCount)

	assert.ErrorIs(t, p.SoftDeleteComment(bson.NewObjectID(), now), ErrChildNotFound)
}

func TestPostAddCommentIsNotIdempotent(t *testing.T) {
	now := Now()
	p, _ := NewPost(testUser("ana"), "hi")
	author := testUser("ben")
	a, _ := p.AddComment(author, "same", now)
	aID := a.ID
	b, _ := p.AddComment(author, "same", now)
	assert.Len(t, p.Comments, 2)
	assert.NotEqual(t, aID, b.ID)
}

func TestPostAddTagIsIdempotent(t *testing.T) {
	now := Now()
	p, _ := NewPost(testUser("ana"), "hi")

	added, err := p.AddTag("#Vinyl", now)
	require.NoError(t, err)
	assert.True(t, added)
	updated := p.UpdatedAt

	added, err = p.AddTag("vinyl", now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"vinyl"}, p.Tags)
	assert.Equal(t, updated, p.UpdatedAt)

	_, err = p.AddTag("  # ", now)
	assert.ErrorIs(t, err, ErrBlankText)
}

func TestPostLikes(t *testing.T) {
	now := Now()
	p, _ := NewPost(testUser("ana"), "hi")
	u := bson.NewObjectID()

	assert.True(t, p.Like(u, now))
	assert.False(t, p.Like(u, now))
	assert.Equal(t, int64(1), p.Stats.LikesCount)
	assert.True(t, p.LikedByUser(u))

	assert.True(t, p.Unlike(u, now))
	assert.False(t, p.Unlike(u, now))
	assert.Equal(t, int64(0), p.Stats.LikesCount)
}

func TestPostExcerpt(t *testing.T) {
	p, _ := NewPost(testUser("ana"), "abcdefghij")
	assert.Equal(t, "abcdefghij", p.Excerpt(20))
	assert.Equal(t, "abc…", p.Excerpt(3))
}
