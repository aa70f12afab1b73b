package query

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// PageResult is what PaginateWithCount produces: one page, the total number
// of matches and whether more pages follow.
type PageResult[T any] struct {
	Items       []T   `bson:"items"`
	Total       int64 `bson:"total"`
	HasNextPage bool  `bson:"hasNextPage"`
}

// PaginateWithCount returns one page plus the total match count in a single
// round trip using $facet.
func PaginateWithCount(match bson.M, sort bson.D, skip, limit int64) mongo.Pipeline {
	if match == nil {
		match = bson.M{}
	}
	if len(sort) == 0 {
		sort = Sort()
	}
	if skip < 0 {
		skip = 0
	}
	items := bson.A{bson.D{{Key: "$skip", Value: skip}}}
	if limit > 0 {
		items = append(items, bson.D{{Key: "$limit", Value: limit}})
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: sort}},
		{{Key: "$facet", Value: bson.D{
			{Key: "items", Value: items},
			{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "count"}}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "items", Value: 1},
			{Key: "total", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$total.count", 0}}}, 0,
			}}}},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "hasNextPage", Value: bson.D{{Key: "$gt", Value: bson.A{
				"$total",
				bson.D{{Key: "$add", Value: bson.A{skip, bson.D{{Key: "$size", Value: "$items"}}}}},
			}}}},
		}}},
	}
}

// GroupCount is one row of GroupByCount.
type GroupCount struct {
	Key   any   `bson:"_id" json:"key"`
	Count int64 `bson:"count" json:"count"`
}

// GroupByCount groups matching documents by field and orders the groups by
// descending count, ties broken by key.
func GroupByCount(match bson.M, field string) mongo.Pipeline {
	p := mongo.Pipeline{}
	if len(match) > 0 {
		p = append(p, bson.D{{Key: "$match", Value: match}})
	}
	return append(p, groupAndSort(field)...)
}

// UnwindGroupByCount is GroupByCount for array fields: each element counts
// once per document.
func UnwindGroupByCount(match bson.M, field string, limit int64) mongo.Pipeline {
	p := mongo.Pipeline{}
	if len(match) > 0 {
		p = append(p, bson.D{{Key: "$match", Value: match}})
	}
	p = append(p, bson.D{{Key: "$unwind", Value: "$" + field}})
	p = append(p, groupAndSort(field)...)
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	return p
}

func groupAndSort(field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
	BucketYear  Bucket = "year"
)

func (b Bucket) Valid() bool {
	switch b {
	case BucketDay, BucketWeek, BucketMonth, BucketYear:
		return true
	}
	return false
}

// BucketKey identifies a bucket. Week buckets use ISO week numbering, in
// which case Year is the ISO week-year.
type BucketKey struct {
	Year  int `bson:"year" json:"year"`
	Month int `bson:"month,omitempty" json:"month,omitempty"`
	Week  int `bson:"week,omitempty" json:"week,omitempty"`
	Day   int `bson:"day,omitempty" json:"day,omitempty"`
}

// TimeBucket is one row of TimeBuckets. First is the earliest timestamp
// that fell in the bucket.
type TimeBucket struct {
	Key   BucketKey `bson:"_id" json:"key"`
	Count int64     `bson:"count" json:"count"`
	First time.Time `bson:"first" json:"first"`
}

// TimeBuckets counts matching documents per day, week, month or year of
// dateField, oldest bucket first. Unknown units fall back to day.
func TimeBuckets(match bson.M, dateField string, unit Bucket) mongo.Pipeline {
	ref := "$" + dateField
	var key bson.D
	switch unit {
	case BucketYear:
		key = bson.D{{Key: "year", Value: bson.D{{Key: "$year", Value: ref}}}}
	case BucketMonth:
		key = bson.D{
			{Key: "year", Value: bson.D{{Key: "$year", Value: ref}}},
			{Key: "month", Value: bson.D{{Key: "$month", Value: ref}}},
		}
	case BucketWeek:
		key = bson.D{
			{Key: "year", Value: bson.D{{Key: "$isoWeekYear", Value: ref}}},
			{Key: "week", Value: bson.D{{Key: "$isoWeek", Value: ref}}},
		}
	default:
		key = bson.D{
			{Key: "year", Value: bson.D{{Key: "$year", Value: ref}}},
			{Key: "month", Value: bson.D{{Key: "$month", Value: ref}}},
			{Key: "day", Value: bson.D{{Key: "$dayOfMonth", Value: ref}}},
		}
	}

	p := mongo.Pipeline{}
	if len(match) > 0 {
		p = append(p, bson.D{{Key: "$match", Value: match}})
	}
	return append(p,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: key},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "first", Value: bson.D{{Key: "$min", Value: ref}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "first", Value: 1}}}},
	)
}

// TextSearchWithScore runs a $text search, exposes the relevance as "score",
// sorts by it and caps the result. The collection needs a text index. extra
// is merged into the same $match stage.
func TextSearchWithScore(search string, extra bson.M, limit int64) mongo.Pipeline {
	match := bson.M{"$text": bson.M{"$search": search}}
	for k, v := range extra {
		if k == "$text" {
			continue
		}
		match[k] = v
	}
	p := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "textScore"}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}}}},
	}
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	return p
}
