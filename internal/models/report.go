package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportActioned  = "actioned"
	ReportDismissed = "dismissed"
)

var ErrInvalidReportStatus = errors.New("invalid status: must be reviewed, actioned, or dismissed")

// Report is a user-filed moderation report against a piece of content.
type Report struct {
	BaseDocument `bson:",inline"`
	Reporter     UserRef    `bson:"reporter" json:"-"`
	Content      TargetRef  `bson:"content" json:"content"`
	Reason       string     `bson:"reason" json:"reason"`
	Status       string     `bson:"status" json:"status"`
	AdminNote    string     `bson:"adminNote,omitempty" json:"admin_note,omitempty"`
	ResolvedAt   *time.Time `bson:"resolvedAt,omitempty" json:"resolved_at,omitempty"`
}

func NewReport(reporter UserRef, content TargetRef, reason string) (*Report, error) {
	if reporter.ID.IsZero() || content.ID.IsZero() {
		return nil, ErrInvalidReference
	}
	switch content.Type {
	case TargetUser, TargetPost, TargetComment, TargetScratch, TargetPlaylist:
	default:
		return nil, errors.New("invalid content_type: must be user, post, comment, scratch, or playlist")
	}
	r, err := cleanText(reason)
	if err != nil {
		return nil, errors.New("reason is required")
	}
	return &Report{Reporter: reporter, Content: content, Reason: r, Status: ReportPending}, nil
}

// Resolve moves the report out of pending.
func (r *Report) Resolve(status, note string, now time.Time) error {
	switch status {
	case ReportReviewed, ReportActioned, ReportDismissed:
	default:
		return ErrInvalidReportStatus
	}
	at := now.UTC()
	r.Status = status
	r.AdminNote = strings.TrimSpace(note)
	r.ResolvedAt = &at
	r.Touch(now)
	return nil
}

// ContentID is used by handlers that accept the hex form.
func (r *Report) ContentID() bson.ObjectID { return r.Content.ID }
