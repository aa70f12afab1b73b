package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"ass", "asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"spam", "scam", "scammer", "phishing", "malware",
}

const (
	ReasonLanguage = "inappropriate_language"
	ReasonURL      = "url_not_allowed"
	ReasonContact  = "contact_info_not_allowed"
	ReasonSpam     = "spam_detected"
	ReasonCaps     = "excessive_caps"
)

var rejectionMessages = map[string]string{
	ReasonLanguage: "Your text contains inappropriate language.",
	ReasonURL:      "URLs and web links are not allowed.",
	ReasonContact:  "Contact information is not allowed.",
	ReasonSpam:     "Your text appears to be spam.",
	ReasonCaps:     "Please avoid using excessive capital letters.",
}

type contentRule struct {
	reason string
	match  func(string) bool
}

func matches(re *regexp.Regexp) func(string) bool { return re.MatchString }

func buildRules() []contentRule {
	banned := make([]*regexp.Regexp, 0, len(BannedWords))
	for _, word := range BannedWords {
		banned = append(banned, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}
	caps := regexp.MustCompile(`[A-Z]{5,}`)

	return []contentRule{
		{ReasonLanguage, func(s string) bool {
			for _, re := range banned {
				if re.MatchString(s) {
					return true
				}
			}
			return false
		}},
		{ReasonURL, matches(regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`))},
		{ReasonContact, matches(regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`))},
		{ReasonContact, matches(regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`))},
		{ReasonSpam, repeatsRune(4)},
		{ReasonCaps, func(s string) bool { return len(caps.FindAllString(s, -1)) > 2 }},
	}
}

// repeatsRune reports runs of the same letter or !?. of length n or more.
func repeatsRune(n int) func(string) bool {
	return func(s string) bool {
		var prev rune
		run := 0
		for _, r := range s {
			lower := r
			if r >= 'A' && r <= 'Z' {
				lower = r + ('a' - 'A')
			}
			tracked := (lower >= 'a' && lower <= 'z') || lower == '!' || lower == '?' || lower == '.'
			if tracked && lower == prev {
				run++
			} else {
				run = 1
			}
			prev = lower
			if tracked && run >= n {
				return true
			}
		}
		return false
	}
}

// ModerationService filters user text and handles reports and blocks.
type ModerationService struct {
	reports *repository.ReportStore
	blocks  *repository.BlockStore
	users   *repository.UserStore
	rules   []contentRule
	now     func() time.Time
}

func NewModerationService(stores *repository.Stores) *ModerationService {
	return &ModerationService{
		reports: stores.Reports,
		blocks:  stores.Blocks,
		users:   stores.Users,
		rules:   buildRules(),
		now:     models.Now,
	}
}

// FilterContent reports whether text passes and, if not, the first failing
// reason.
func (s *ModerationService) FilterContent(text string) (bool, string) {
	if text == "" {
		return true, ""
	}
	for _, r := range s.rules {
		if r.match(text) {
			return false, r.reason
		}
	}
	return true, ""
}

// Check is FilterContent as an error.
func (s *ModerationService) Check(text string) error {
	if ok, reason := s.FilterContent(text); !ok {
		return &RejectedError{Reason: reason, Message: RejectionMessage(reason)}
	}
	return nil
}

func (s *ModerationService) ContainsProfanity(text string) bool {
	return s.rules[0].match(text)
}

func RejectionMessage(reason string) string {
	if msg, ok := rejectionMessages[reason]; ok {
		return msg
	}
	return "Your text does not meet our content guidelines."
}

func (s *ModerationService) CreateReport(ctx context.Context, reporterID bson.ObjectID, req *dto.CreateReportRequest) (*models.Report, error) {
	reporter, err := load(ctx, s.users.Repository, reporterID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	contentID, ok := models.ParseID(req.ContentID)
	if !ok {
		return nil, errors.New("invalid content_id")
	}
	report, err := models.NewReport(reporter.Ref(), models.TargetRef{Type: models.TargetType(req.ContentType), ID: contentID}, req.Reason)
	if err != nil {
		return nil, err
	}
	if _, err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

func (s *ModerationService) ListReports(ctx context.Context, status string, skip, limit int64) (*repository.Page[*models.Report], error) {
	skip, limit = Bounds(skip, limit)
	return s.reports.ByStatus(ctx, status, skip, limit)
}

func (s *ModerationService) ActionReport(ctx context.Context, reportID string, req *dto.ActionReportRequest) (*models.Report, error) {
	id, err := parseID(reportID, ErrReportNotFound)
	if err != nil {
		return nil, err
	}
	return mutate(ctx, s.reports.Repository, id, ErrReportNotFound, func(r *models.Report) error {
		return r.Resolve(req.Status, req.AdminNote, s.now())
	})
}

func (s *ModerationService) BlockUser(ctx context.Context, blockerID bson.ObjectID, blockedHex string) error {
	blockedID, err := parseID(blockedHex, ErrUserNotFound)
	if err != nil {
		return err
	}
	if blockerID == blockedID {
		return ErrSelfBlock
	}
	if _, err := load(ctx, s.users.Repository, blockedID, ErrUserNotFound); err != nil {
		return err
	}
	_, err = s.blocks.Create(ctx, &models.Block{BlockerID: blockerID, BlockedID: blockedID})
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyBlocked
	}
	return err
}

func (s *ModerationService) UnblockUser(ctx context.Context, blockerID bson.ObjectID, blockedHex string) error {
	blockedID, err := parseID(blockedHex, ErrUserNotFound)
	if err != nil {
		return err
	}
	_, err = s.blocks.Remove(ctx, blockerID, blockedID)
	return err
}

func (s *ModerationService) GetBlockedIDs(ctx context.Context, userID bson.ObjectID) ([]bson.ObjectID, error) {
	return s.blocks.BlockedIDs(ctx, userID)
}
