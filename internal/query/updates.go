package query

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Update accumulates a field-level update. Build always adds an updatedAt
// refresh and a version increment, so partial writes keep the same
// timestamp and concurrency guarantees as full replaces.
type Update struct {
	set      bson.M
	inc      bson.M
	addToSet bson.M
	push     bson.M
	pull     bson.M
	unset    bson.M
}

func NewUpdate() *Update {
	return &Update{}
}

func (u *Update) Set(field string, value any) *Update {
	u.set = put(u.set, field, value)
	return u
}

func (u *Update) Inc(field string, by int64) *Update {
	u.inc = put(u.inc, field, by)
	return u
}

// AddToSet adds value to an array field unless it is already present.
func (u *Update) AddToSet(field string, value any) *Update {
	u.addToSet = put(u.addToSet, field, value)
	return u
}

// Push appends value to an array field.
func (u *Update) Push(field string, value any) *Update {
	u.push = put(u.push, field, value)
	return u
}

// Pull removes every element equal to value (or matching it, when value is
// a condition document).
func (u *Update) Pull(field string, value any) *Update {
	u.pull = put(u.pull, field, value)
	return u
}

func (u *Update) Unset(field string) *Update {
	u.unset = put(u.unset, field, "")
	return u
}

// Empty reports whether no field change has been requested.
func (u *Update) Empty() bool {
	return len(u.set) == 0 && len(u.inc) == 0 && len(u.addToSet) == 0 &&
		len(u.push) == 0 && len(u.pull) == 0 && len(u.unset) == 0
}

// Build renders the update document for now.
func (u *Update) Build(now time.Time) bson.M {
	set := bson.M{}
	for k, v := range u.set {
		set[k] = v
	}
	set["updatedAt"] = now.UTC().Truncate(time.Millisecond)

	inc := bson.M{}
	for k, v := range u.inc {
		inc[k] = v
	}
	inc["version"] = int64(1)

	doc := bson.M{"$set": set, "$inc": inc}
	if len(u.addToSet) > 0 {
		doc["$addToSet"] = u.addToSet
	}
	if len(u.push) > 0 {
		doc["$push"] = u.push
	}
	if len(u.pull) > 0 {
		doc["$pull"] = u.pull
	}
	if len(u.unset) > 0 {
		doc["$unset"] = u.unset
	}
	return doc
}

// Increment is the common counter update.
func Increment(field string, by int64) *Update {
	return NewUpdate().Inc(field, by)
}

// AddToArray adds value to a set-like array.
func AddToArray(field string, value any) *Update {
	return NewUpdate().AddToSet(field, value)
}

// RemoveFromArray pulls value from an array.
func RemoveFromArray(field string, value any) *Update {
	return NewUpdate().Pull(field, value)
}

func put(m bson.M, k string, v any) bson.M {
	if m == nil {
		m = bson.M{}
	}
	m[k] = v
	return m
}
