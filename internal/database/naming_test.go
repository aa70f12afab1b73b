package database

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

type PersonDocument struct{}
type CategoryDocument struct{}
type Document struct{}

func TestCollectionName(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{models.User{}, "users"},
		{&models.Post{}, "posts"},
		{models.Scratch{}, "scratches"},
		{models.Playlist{}, "playlists"},
		{models.Notification{}, "notifications"},
		{models.Genre{}, "genres"},
		{models.SystemLog{}, "system_logs"},
		{&models.RefreshToken{}, "refresh_tokens"},
		{PersonDocument{}, "people"},
		{CategoryDocument{}, "categories"},
		{Document{}, "documents"},
		{models.Block{}, "blocks"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CollectionName(tt.in))
	}
}
