package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Comment is a standalone comment on a scratch, playlist or album. Post
// comments are embedded in the post instead (see PostComment).
type Comment struct {
	SoftDeleteDocument `bson:",inline"`
	Target             TargetRef       `bson:"target" json:"target"`
	Author             UserRef         `bson:"author" json:"author"`
	Content            string          `bson:"content" json:"content"`
	EditedAt           *time.Time      `bson:"editedAt,omitempty" json:"edited_at,omitempty"`
	LikedBy            []bson.ObjectID `bson:"likedBy" json:"-"`
	LikesCount         int64           `bson:"likesCount" json:"likes_count"`
}

func NewComment(target TargetRef, author UserRef, content string) (*Comment, error) {
	if target.ID.IsZero() || !target.Type.Valid() || author.ID.IsZero() {
		return nil, ErrInvalidReference
	}
	c, err := cleanText(content)
	if err != nil {
		return nil, err
	}
	return &Comment{Target: target, Author: author, Content: c, LikedBy: []bson.ObjectID{}}, nil
}

func (c *Comment) SetAuthor(author UserRef, now time.Time) error {
	if author.ID.IsZero() {
		return ErrInvalidReference
	}
	c.Author = author
	c.Touch(now)
	return nil
}

func (c *Comment) Edit(content string, now time.Time) error {
	text, err := cleanText(content)
	if err != nil {
		return err
	}
	at := now.UTC()
	c.Content = text
	c.EditedAt = &at
	c.Touch(now)
	return nil
}

func (c *Comment) Like(userID bson.ObjectID, now time.Time) bool {
	var added bool
	c.LikedBy, added = addID(c.LikedBy, userID)
	if added {
		c.LikesCount = int64(len(c.LikedBy))
		c.Touch(now)
	}
	return added
}

func (c *Comment) Unlike(userID bson.ObjectID, now time.Time) bool {
	var removed bool
	c.LikedBy, removed = removeID(c.LikedBy, userID)
	if removed {
		c.LikesCount = int64(len(c.LikedBy))
		c.Touch(now)
	}
	return removed
}
