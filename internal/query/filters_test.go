package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestTextSearch(t *testing.T) {
	tests := []struct {
		name   string
		term   string
		fields []string
		want   bson.M
	}{
		{"blank term", "  ", []string{"title"}, bson.M{}},
		{"no fields", "jazz", nil, bson.M{}},
		{
			name:   "single field",
			term:   "jazz",
			fields: []string{"title"},
			want:   bson.M{"title": bson.Regex{Pattern: "jazz", Options: "i"}},
		},
		{
			name:   "many fields are ORed",
			term:   "a.b",
			fields: []string{"title", "artist.name"},
			want: bson.M{"$or": bson.A{
				bson.M{"title": bson.Regex{Pattern: `a\.b`, Options: "i"}},
				bson.M{"artist.name": bson.Regex{Pattern: `a\.b`, Options: "i"}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TextSearch(tt.term, tt.fields...))
		})
	}
}

func TestEqualsIgnoreCaseEscapesInput(t *testing.T) {
	got := EqualsIgnoreCase("username", "a+b(c)")
	assert.Equal(t, bson.M{"username": bson.Regex{Pattern: `^a\+b\(c\)$`, Options: "i"}}, got)
}

func TestDateRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	assert.Equal(t, bson.M{}, DateRange("createdAt", nil, nil))
	assert.Equal(t, bson.M{"createdAt": bson.M{"$gte": from}}, DateRange("createdAt", &from, nil))
	assert.Equal(t, bson.M{"createdAt": bson.M{"$lte": to}}, DateRange("createdAt", nil, &to))
	assert.Equal(t, bson.M{"createdAt": bson.M{"$gte": from, "$lte": to}}, DateRange("createdAt", &from, &to))
}

func TestInAndNotIn(t *testing.T) {
	ids := []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID()}
	assert.Equal(t, bson.M{"author.id": bson.M{"$in": ids}}, In("author.id", ids))
	assert.Equal(t, bson.M{"tags": bson.M{"$in": []string{}}}, In[string]("tags", nil))
	assert.Equal(t, bson.M{"author.id": bson.M{"$nin": ids}}, NotIn("author.id", ids))
}

func TestAndOr(t *testing.T) {
	a := Eq("a", 1)
	b := Eq("b", 2)

	assert.Equal(t, bson.M{}, And())
	assert.Equal(t, a, And(a, bson.M{}))
	assert.Equal(t, bson.M{"$and": bson.A{a, b}}, And(a, nil, b))
	assert.Equal(t, bson.M{"$or": bson.A{a, b}}, Or(a, b))
}

func TestNotDeleted(t *testing.T) {
	f := NotDeleted()
	require.Contains(t, f, "isDeleted")
	assert.Equal(t, bson.M{"$ne": true}, f["isDeleted"])
}
