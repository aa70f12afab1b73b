package models

import "time"

// Tag tracks how often a free-form tag is used across posts, scratches and
// playlists.
type Tag struct {
	BaseDocument `bson:",inline"`
	Name         string     `bson:"name" json:"name"`
	UsageCount   int64      `bson:"usageCount" json:"usage_count"`
	LastUsedAt   *time.Time `bson:"lastUsedAt,omitempty" json:"last_used_at,omitempty"`
}

func NewTag(name string) *Tag {
	return &Tag{Name: NormalizeTag(name)}
}

func (t *Tag) Use(now time.Time) {
	at := now.UTC()
	t.UsageCount++
	t.LastUsedAt = &at
	t.Touch(now)
}

func (t *Tag) Release(now time.Time) {
	if t.UsageCount == 0 {
		return
	}
	t.UsageCount--
	t.Touch(now)
}
