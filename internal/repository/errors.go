package repository

import "errors"

// Invalid-argument errors are returned before any store call. Absence on
// reads is never an error: lookups return nil, deletes return false.
var (
	ErrNilDocument      = errors.New("document is nil")
	ErrIdentityAssigned = errors.New("document already has an identity")
	ErrEmptyID          = errors.New("document has no identity")
	ErrNotFound         = errors.New("document not found")
	ErrVersionConflict  = errors.New("document was modified concurrently")
	ErrEmptyBatch       = errors.New("batch is empty")
	ErrMissingIdentity  = errors.New("every document in the batch needs an identity")
	ErrInvalidLimit     = errors.New("limit must be positive")
	ErrNotSoftDeletable = errors.New("document type does not support soft delete")
)
