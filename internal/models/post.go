package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PostComment is embedded in a post. Deleted comments stay in the list with
// IsDeleted set so threads keep their shape.
type PostComment struct {
	ID        bson.ObjectID `bson:"id" json:"id"`
	Author    UserRef       `bson:"author" json:"author"`
	Content   string        `bson:"content" json:"content"`
	CreatedAt time.Time     `bson:"createdAt" json:"created_at"`
	EditedAt  *time.Time    `bson:"editedAt,omitempty" json:"edited_at,omitempty"`
	IsDeleted bool          `bson:"isDeleted" json:"is_deleted"`
	DeletedAt *time.Time    `bson:"deletedAt,omitempty" json:"deleted_at,omitempty"`
}

// Post is a free-form status update, optionally about an album.
// Stats.CommentsCount always equals the number of non-deleted comments and
// Stats.LikesCount the length of LikedBy.
type Post struct {
	SoftDeleteDocument `bson:",inline"`
	Author             UserRef         `bson:"author" json:"author"`
	Album              *AlbumRef       `bson:"album,omitempty" json:"album,omitempty"`
	Content            string          `bson:"content" json:"content"`
	ImageURLs          []string        `bson:"imageUrls" json:"image_urls"`
	Tags               []string        `bson:"tags" json:"tags"`
	Comments           []PostComment   `bson:"comments" json:"comments"`
	LikedBy            []bson.ObjectID `bson:"likedBy" json:"-"`
	Stats              PostStats       `bson:"stats" json:"stats"`
}

func NewPost(author UserRef, content string) (*Post, error) {
	c, err := cleanText(content)
	if err != nil {
		return nil, err
	}
	if author.ID.IsZero() {
		return nil, ErrInvalidReference
	}
	return &Post{
		Author:    author,
		Content:   c,
		ImageURLs: []string{},
		Tags:      []string{},
		Comments:  []PostComment{},
		LikedBy:   []bson.ObjectID{},
	}, nil
}

func (p *Post) SetAuthor(author UserRef, now time.Time) error {
	if author.ID.IsZero() {
		return ErrInvalidReference
	}
	p.Author = author
	p.Touch(now)
	return nil
}

// SetAlbum attaches (or with a nil ref, detaches) the album snapshot.
func (p *Post) SetAlbum(album *AlbumRef, now time.Time) error {
	if album != nil && album.ID.IsZero() {
		return ErrInvalidReference
	}
	p.Album = album
	p.Touch(now)
	return nil
}

func (p *Post) Edit(content string, now time.Time) error {
	c, err := cleanText(content)
	if err != nil {
		return err
	}
	p.Content = c
	p.Touch(now)
	return nil
}

func (p *Post) AddTag(tag string, now time.Time) (bool, error) {
	t := NormalizeTag(tag)
	if t == "" {
		return false, ErrBlankText
	}
	var added bool
	p.Tags, added = addUnique(p.Tags, t)
	if added {
		p.Touch(now)
	}
	return added, nil
}

// AddComment appends a new comment on every call.
func (p *Post) AddComment(author UserRef, content string, now time.Time) (*PostComment, error) {
	c, err := cleanText(content)
	if err != nil {
		return nil, err
	}
	if author.ID.IsZero() {
		return nil, ErrInvalidReference
	}
	p.Comments = append(p.Comments, PostComment{
		ID:        bson.NewObjectID(),
		Author:    author,
		Content:   c,
		CreatedAt: now.UTC(),
	})
	p.recountComments()
	p.Touch(now)
	return &p.Comments[len(p.Comments)-1], nil
}

func (p *Post) Comment(id bson.ObjectID) (*PostComment, bool) {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i], true
		}
	}
	return nil, false
}

// SoftDeleteComment tombstones a comment in place. Deleting an already
// deleted comment is a no-op.
func (p *Post) SoftDeleteComment(id bson.ObjectID, now time.Time) error {
	c, ok := p.Comment(id)
	if !ok {
		return ErrChildNotFound
	}
	if c.IsDeleted {
		return nil
	}
	at := now.UTC()
	c.IsDeleted = true
	c.DeletedAt = &at
	p.recountComments()
	p.Touch(now)
	return nil
}

func (p *Post) RestoreComment(id bson.ObjectID, now time.Time) error {
	c, ok := p.Comment(id)
	if !ok {
		return ErrChildNotFound
	}
	if !c.IsDeleted {
		return nil
	}
	c.IsDeleted = false
	c.DeletedAt = nil
	p.recountComments()
	p.Touch(now)
	return nil
}

// ActiveComments returns the comments that are not deleted.
func (p *Post) ActiveComments() []PostComment {
	out := make([]PostComment, 0, len(p.Comments))
	for _, c := range p.Comments {
		if !c.IsDeleted {
			out = append(out, c)
		}
	}
	return out
}

func (p *Post) recountComments() {
	var n int64
	for _, c := range p.Comments {
		if !c.IsDeleted {
			n++
		}
	}
	p.Stats.CommentsCount = n
}

func (p *Post) LikedByUser(userID bson.ObjectID) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Like is idempotent per user.
func (p *Post) Like(userID bson.ObjectID, now time.Time) bool {
	var added bool
	p.LikedBy, added = addID(p.LikedBy, userID)
	if added {
		p.Stats.LikesCount = int64(len(p.LikedBy))
		p.Touch(now)
	}
	return added
}

func (p *Post) Unlike(userID bson.ObjectID, now time.Time) bool {
	var removed bool
	p.LikedBy, removed = removeID(p.LikedBy, userID)
	if removed {
		p.Stats.LikesCount = int64(len(p.LikedBy))
		p.Touch(now)
	}
	return removed
}

// Excerpt is used in notification messages.
func (p *Post) Excerpt(n int) string {
	r := []rune(strings.TrimSpace(p.Content))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
