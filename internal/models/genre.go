package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Genre is a reference-data aggregate addressed by slug.
type Genre struct {
	BaseDocument `bson:",inline"`
	Name         string         `bson:"name" json:"name"`
	Slug         string         `bson:"slug" json:"slug"`
	Description  string         `bson:"description,omitempty" json:"description,omitempty"`
	ParentID     *bson.ObjectID `bson:"parentId,omitempty" json:"parent_id,omitempty"`
	Stats        GenreStats     `bson:"stats" json:"stats"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases a name and collapses anything non-alphanumeric to '-'.
func Slugify(name string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func NewGenre(name string) *Genre {
	n := strings.TrimSpace(name)
	return &Genre{Name: n, Slug: Slugify(n)}
}

func (g *Genre) SetParent(parentID bson.ObjectID, now time.Time) error {
	if parentID.IsZero() || parentID == g.ID {
		return ErrInvalidReference
	}
	g.ParentID = &parentID
	g.Touch(now)
	return nil
}
