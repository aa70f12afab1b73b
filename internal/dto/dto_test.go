package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsesJSONNames(t *testing.T) {
	err := Validate(&RegisterRequest{Email: "nope", Username: "ab", Password: "short"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "email must be a valid email")
		assert.Contains(t, err.Error(), "username must be at least 3 characters")
		assert.Contains(t, err.Error(), "password must be at least 8 characters")
	}

	assert.NoError(t, Validate(&RegisterRequest{Email: "a@b.co", Username: "ana", Password: "longenough"}))
}

func TestValidateIDsAndRanges(t *testing.T) {
	err := Validate(&CreateScratchRequest{AlbumID: "xyz", Rating: 11})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "album_id must be a valid id")
		assert.Contains(t, err.Error(), "rating must be at most 10")
	}

	assert.NoError(t, Validate(&CreateScratchRequest{AlbumID: "65f1c0a2b3c4d5e6f7a8b9c0", Rating: 0}))
}

func TestValidateOptionalPointers(t *testing.T) {
	assert.NoError(t, Validate(&UpdateScratchRequest{}))
	bad := 12
	assert.Error(t, Validate(&UpdateScratchRequest{Rating: &bad}))
}

func TestValidateReportStatus(t *testing.T) {
	err := Validate(&ActionReportRequest{Status: "deleted"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "status must be one of: reviewed actioned dismissed")
	}
}
