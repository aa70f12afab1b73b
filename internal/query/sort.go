package query

import (
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// ParseDirection accepts "asc"/"ascending" and "desc"/"descending"; anything
// else is Descending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "1":
		return Ascending
	}
	return Descending
}

type SortField struct {
	Field     string
	Direction Direction
}

func Asc(field string) SortField  { return SortField{Field: field, Direction: Ascending} }
func Desc(field string) SortField { return SortField{Field: field, Direction: Descending} }

// DefaultSort is newest first.
var DefaultSort = SortField{Field: "createdAt", Direction: Descending}

// Sort builds an ordered sort document. Fields with a blank name are
// skipped; with nothing left it falls back to DefaultSort.
func Sort(fields ...SortField) bson.D {
	out := make(bson.D, 0, len(fields)+1)
	for _, f := range fields {
		if f.Field == "" {
			continue
		}
		dir := f.Direction
		if dir != Ascending {
			dir = Descending
		}
		out = append(out, bson.E{Key: f.Field, Value: int(dir)})
	}
	if len(out) == 0 {
		out = append(out, bson.E{Key: DefaultSort.Field, Value: int(DefaultSort.Direction)})
	}
	return out
}

// StableSort appends _id as a tiebreaker so pages do not overlap when the
// primary key has duplicates.
func StableSort(fields ...SortField) bson.D {
	s := Sort(fields...)
	for _, e := range s {
		if e.Key == "_id" {
			return s
		}
	}
	return append(s, bson.E{Key: "_id", Value: s[0].Value})
}
