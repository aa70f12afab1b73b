package models

import (
	"strings"
	"time"
)

const (
	BadgeTierBronze = "bronze"
	BadgeTierSilver = "silver"
	BadgeTierGold   = "gold"
)

// Badge is the definition of an achievement; users embed EarnedBadge
// snapshots of it.
type Badge struct {
	BaseDocument `bson:",inline"`
	Name         string     `bson:"name" json:"name"`
	Description  string     `bson:"description" json:"description"`
	IconURL      string     `bson:"iconUrl,omitempty" json:"icon_url,omitempty"`
	Tier         string     `bson:"tier" json:"tier"`
	Criteria     string     `bson:"criteria,omitempty" json:"criteria,omitempty"`
	IsActive     bool       `bson:"isActive" json:"is_active"`
	Stats        BadgeStats `bson:"stats" json:"stats"`
}

func NewBadge(name, description, tier string) (*Badge, error) {
	n, err := cleanText(name)
	if err != nil {
		return nil, err
	}
	switch tier {
	case BadgeTierBronze, BadgeTierSilver, BadgeTierGold:
	default:
		tier = BadgeTierBronze
	}
	return &Badge{Name: n, Description: strings.TrimSpace(description), Tier: tier, IsActive: true}, nil
}

// Earned returns the snapshot embedded in a user.
func (b *Badge) Earned(now time.Time) EarnedBadge {
	return EarnedBadge{BadgeID: b.ID, Name: b.Name, IconURL: b.IconURL, Tier: b.Tier, EarnedAt: now.UTC()}
}

func (b *Badge) Award(now time.Time) {
	b.Stats.AwardedCount++
	b.Touch(now)
}

func (b *Badge) Revoke(now time.Time) {
	if b.Stats.AwardedCount == 0 {
		return
	}
	b.Stats.AwardedCount--
	b.Touch(now)
}

func (b *Badge) Deactivate(now time.Time) {
	if !b.IsActive {
		return
	}
	b.IsActive = false
	b.Touch(now)
}
