// Package query builds filter, sort, update and aggregation definitions for
// the document store so callers never hand-assemble BSON operators.
package query

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ByID matches a single document by identity.
func ByID(id bson.ObjectID) bson.M {
	return bson.M{"_id": id}
}

// Eq matches field == value.
func Eq(field string, value any) bson.M {
	return bson.M{field: value}
}

// TextSearch matches documents where any of fields contains term,
// case-insensitively. The term is escaped so it is never treated as a
// pattern. A blank term or no fields yields an empty (match-all) filter.
func TextSearch(term string, fields ...string) bson.M {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return bson.M{}
	}
	pattern := bson.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	if len(fields) == 1 {
		return bson.M{fields[0]: pattern}
	}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: pattern})
	}
	return bson.M{"$or": or}
}

// DateRange matches from <= field <= to. Either bound may be nil; with both
// nil the filter matches everything.
func DateRange(field string, from, to *time.Time) bson.M {
	cond := bson.M{}
	if from != nil {
		cond["$gte"] = from.UTC()
	}
	if to != nil {
		cond["$lte"] = to.UTC()
	}
	if len(cond) == 0 {
		return bson.M{}
	}
	return bson.M{field: cond}
}

// Before matches field < t.
func Before(field string, t time.Time) bson.M {
	return bson.M{field: bson.M{"$lt": t.UTC()}}
}

// In matches when field equals any of values. An empty set matches nothing.
func In[V any](field string, values []V) bson.M {
	if values == nil {
		values = []V{}
	}
	return bson.M{field: bson.M{"$in": values}}
}

// NotIn matches when field equals none of values.
func NotIn[V any](field string, values []V) bson.M {
	if values == nil {
		values = []V{}
	}
	return bson.M{field: bson.M{"$nin": values}}
}

// EqualsIgnoreCase matches field == value ignoring case. The value is
// escaped and anchored.
func EqualsIgnoreCase(field, value string) bson.M {
	return bson.M{field: bson.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}}
}

// NotDeleted excludes tombstoned documents. Documents written before the
// flag existed have no isDeleted field and still match.
func NotDeleted() bson.M {
	return bson.M{"isDeleted": bson.M{"$ne": true}}
}

// OnlyDeleted matches tombstoned documents.
func OnlyDeleted() bson.M {
	return bson.M{"isDeleted": true}
}

// And combines filters, skipping empty ones.
func And(filters ...bson.M) bson.M {
	return combine("$and", filters)
}

// Or combines filters, skipping empty ones.
func Or(filters ...bson.M) bson.M {
	return combine("$or", filters)
}

func combine(op string, filters []bson.M) bson.M {
	parts := make(bson.A, 0, len(filters))
	var last bson.M
	for _, f := range filters {
		if len(f) == 0 {
			continue
		}
		parts = append(parts, f)
		last = f
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return last
	}
	return bson.M{op: parts}
}
