package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestNextSkip(t *testing.T) {
	p := &Page[int]{Items: []int{1, 2, 3}, Skip: 10, Limit: 10}
	assert.Equal(t, int64(13), p.NextSkip())

	empty := &Page[int]{Skip: 20, Limit: 10}
	assert.Equal(t, int64(20), empty.NextSkip())
}

func TestVersionFilter(t *testing.T) {
	id := bson.NewObjectID()

	assert.Equal(t, bson.M{"_id": id, "version": int64(3)}, versionFilter(id, 3))

	legacy := versionFilter(id, 0)
	assert.Equal(t, id, legacy["_id"])
	assert.Len(t, legacy["$or"], 2)
}

func TestOrAll(t *testing.T) {
	assert.Equal(t, bson.M{}, orAll(nil))
	f := bson.M{"a": 1}
	assert.Equal(t, f, orAll(f))
}
