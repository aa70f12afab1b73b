package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Document is the minimal capability the generic repository needs from an
// aggregate: identity, timestamps and a version for compare-and-swap writes.
type Document interface {
	GetID() bson.ObjectID
	SetID(id bson.ObjectID)
	GetCreatedAt() time.Time
	SetCreatedAt(t time.Time)
	GetUpdatedAt() time.Time
	SetUpdatedAt(t time.Time)
	Touch(now time.Time)
	GetVersion() int64
	SetVersion(v int64)
}

// DocumentPtr constrains a type parameter to *T implementing Document, so a
// generic component can allocate a zero T and still call its methods.
type DocumentPtr[T any] interface {
	*T
	Document
}

// SoftDeletable is implemented by aggregates that are tombstoned instead of
// physically removed.
type SoftDeletable interface {
	Document
	Deleted() bool
	SoftDelete(now time.Time)
	Restore(now time.Time)
}

// Now returns the current UTC time truncated to the precision BSON dates keep.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// ParseID converts the external hex form of an identifier. The second return
// is false for blank or malformed input.
func ParseID(s string) (bson.ObjectID, bool) {
	if s == "" {
		return bson.NilObjectID, false
	}
	id, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.NilObjectID, false
	}
	return id, true
}

// BaseDocument is embedded (inline) by every aggregate.
type BaseDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time     `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updated_at"`
	Version   int64         `bson:"version" json:"version"`
}

func (d *BaseDocument) GetID() bson.ObjectID     { return d.ID }
func (d *BaseDocument) SetID(id bson.ObjectID)   { d.ID = id }
func (d *BaseDocument) GetCreatedAt() time.Time  { return d.CreatedAt }
func (d *BaseDocument) SetCreatedAt(t time.Time) { d.CreatedAt = t }
func (d *BaseDocument) GetUpdatedAt() time.Time  { return d.UpdatedAt }
func (d *BaseDocument) SetUpdatedAt(t time.Time) { d.UpdatedAt = t }
func (d *BaseDocument) GetVersion() int64        { return d.Version }
func (d *BaseDocument) SetVersion(v int64)       { d.Version = v }

// Touch refreshes UpdatedAt. The new value is always strictly later than the
// previous one and never earlier than CreatedAt, even when the wall clock has
// not advanced past the stored millisecond.
func (d *BaseDocument) Touch(now time.Time) {
	now = now.UTC().Truncate(time.Millisecond)
	if !now.After(d.UpdatedAt) {
		now = d.UpdatedAt.Add(time.Millisecond)
	}
	if now.Before(d.CreatedAt) {
		now = d.CreatedAt
	}
	d.UpdatedAt = now
}

// SoftDeleteDocument adds a tombstone. IsDeleted and DeletedAt are only
// changed together.
type SoftDeleteDocument struct {
	BaseDocument `bson:",inline"`
	IsDeleted    bool       `bson:"isDeleted" json:"is_deleted"`
	DeletedAt    *time.Time `bson:"deletedAt,omitempty" json:"deleted_at,omitempty"`
}

func (d *SoftDeleteDocument) Deleted() bool { return d.IsDeleted }

// SoftDelete marks the document deleted. Deleting twice keeps the original
// deletion time.
func (d *SoftDeleteDocument) SoftDelete(now time.Time) {
	if d.IsDeleted {
		return
	}
	d.Touch(now)
	at := d.UpdatedAt
	d.IsDeleted = true
	d.DeletedAt = &at
}

// Restore clears both tombstone fields.
func (d *SoftDeleteDocument) Restore(now time.Time) {
	if !d.IsDeleted && d.DeletedAt == nil {
		return
	}
	d.IsDeleted = false
	d.DeletedAt = nil
	d.Touch(now)
}
