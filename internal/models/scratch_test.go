package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestScratchRating(t *testing.T) {
	now := Now()
	album := AlbumRef{ID: bson.NewObjectID(), Title: "Blue"}

	_, err := NewScratch(testUser("ana"), album, 11)
	assert.ErrorIs(t, err, ErrRatingOutOfRange)
	_, err = NewScratch(testUser("ana"), AlbumRef{}, 5)
	assert.ErrorIs(t, err, ErrInvalidReference)

	s, err := NewScratch(testUser("ana"), album, 7)
	require.NoError(t, err)
	s.CreatedAt, s.UpdatedAt = now, now

	prev, err := s.SetRating(9, now)
	require.NoError(t, err)
	assert.Equal(t, 7, prev)
	assert.Equal(t, 9, s.Rating)
	assert.True(t, s.UpdatedAt.After(now))

	_, err = s.SetRating(-1, now)
	assert.ErrorIs(t, err, ErrRatingOutOfRange)
	assert.Equal(t, 9, s.Rating)
}

func TestScratchCommentCounter(t *testing.T) {
	now := Now()
	s, _ := NewScratch(testUser("ana"), AlbumRef{ID: bson.NewObjectID()}, 5)
	s.IncrementComments(now)
	s.IncrementComments(now)
	s.DecrementComments(now)
	assert.Equal(t, int64(1), s.Stats.CommentsCount)
	s.DecrementComments(now)
	s.DecrementComments(now)
	assert.Zero(t, s.Stats.CommentsCount)
}

func TestNotificationReadState(t *testing.T) {
	now := Now()
	n, err := NewNotification(bson.NewObjectID(), NotificationFollow, "ana followed you", 24*time.Hour, now)
	require.NoError(t, err)
	require.NotNil(t, n.ExpiresAt)
	assert.False(t, n.Expired(now))
	assert.True(t, n.Expired(now.Add(25*time.Hour)))

	assert.True(t, n.MarkRead(now))
	readAt := *n.ReadAt
	updated := n.UpdatedAt
	assert.False(t, n.MarkRead(now.Add(time.Minute)))
	assert.Equal(t, readAt, *n.ReadAt)
	assert.Equal(t, updated, n.UpdatedAt)

	assert.True(t, n.MarkUnread(now))
	assert.Nil(t, n.ReadAt)

	forever, _ := NewNotification(bson.NewObjectID(), NotificationSystem, "hi", 0, now)
	assert.Nil(t, forever.ExpiresAt)
}

func TestReportResolve(t *testing.T) {
	now := Now()
	_, err := NewReport(testUser("ana"), TargetRef{Type: TargetAlbum, ID: bson.NewObjectID()}, "spam")
	assert.Error(t, err)

	r, err := NewReport(testUser("ana"), TargetRef{Type: TargetPost, ID: bson.NewObjectID()}, " spam ")
	require.NoError(t, err)
	assert.Equal(t, ReportPending, r.Status)
	assert.Equal(t, "spam", r.Reason)

	assert.ErrorIs(t, r.Resolve("bogus", "", now), ErrInvalidReportStatus)
	require.NoError(t, r.Resolve(ReportActioned, " removed ", now))
	assert.Equal(t, "removed", r.AdminNote)
	assert.NotNil(t, r.ResolvedAt)
}

func TestTagUsage(t *testing.T) {
	now := Now()
	tag := NewTag("#ShoeGaze")
	assert.Equal(t, "shoegaze", tag.Name)
	tag.Use(now)
	tag.Use(now)
	tag.Release(now)
	assert.Equal(t, int64(1), tag.UsageCount)
	tag.Release(now)
	tag.Release(now)
	assert.Zero(t, tag.UsageCount)
}
