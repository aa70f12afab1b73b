package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestSort(t *testing.T) {
	tests := []struct {
		name   string
		fields []SortField
		want   bson.D
	}{
		{"empty falls back to newest first", nil, bson.D{{Key: "createdAt", Value: -1}}},
		{"blank names skipped", []SortField{{Field: ""}}, bson.D{{Key: "createdAt", Value: -1}}},
		{
			name:   "order preserved",
			fields: []SortField{Desc("stats.likesCount"), Asc("title")},
			want:   bson.D{{Key: "stats.likesCount", Value: -1}, {Key: "title", Value: 1}},
		},
		{"zero direction is descending", []SortField{{Field: "rating"}}, bson.D{{Key: "rating", Value: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sort(tt.fields...))
		})
	}
}

func TestStableSortAddsIDOnce(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "rating", Value: 1}, {Key: "_id", Value: 1}}, StableSort(Asc("rating")))
	assert.Equal(t, bson.D{{Key: "_id", Value: -1}}, StableSort(Desc("_id")))
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Ascending, ParseDirection("ASC"))
	assert.Equal(t, Ascending, ParseDirection("ascending"))
	assert.Equal(t, Descending, ParseDirection("desc"))
	assert.Equal(t, Descending, ParseDirection(""))
}
