package trust

import (
	"errors"
	"fmt"
)

var ErrInvalidTierTable = errors.New("invalid tier table")

// Tier is an ordered trust level.
type Tier string

const (
	TierNew             Tier = "new"
	TierEstablished     Tier = "established"
	TierTrusted         Tier = "trusted"
	TierHighlyTrusted   Tier = "highly_trusted"
	TierCommunityPillar Tier = "community_pillar"
)

var tierRank = map[Tier]int{
	TierNew:             0,
	TierEstablished:     1,
	TierTrusted:         2,
	TierHighlyTrusted:   3,
	TierCommunityPillar: 4,
}

// AtLeast reports whether t is the same level as other or above it. Unknown
// tiers are below every known one.
func (t Tier) AtLeast(other Tier) bool {
	rt, ok := tierRank[t]
	if !ok {
		return false
	}
	ro, ok := tierRank[other]
	if !ok {
		return true
	}
	return rt >= ro
}

// TierThreshold is the lowest overall score that earns Tier.
type TierThreshold struct {
	Tier     Tier    `json:"tier"`
	MinScore float64 `json:"min_score"`
}

// DefaultTiers is the production ladder.
func DefaultTiers() []TierThreshold {
	return []TierThreshold{
		{Tier: TierNew, MinScore: 0},
		{Tier: TierEstablished, MinScore: 30},
		{Tier: TierTrusted, MinScore: 55},
		{Tier: TierHighlyTrusted, MinScore: 75},
		{Tier: TierCommunityPillar, MinScore: 90},
	}
}

func validateTiers(tiers []TierThreshold) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidTierTable)
	}
	if tiers[0].MinScore != 0 {
		return fmt.Errorf("%w: lowest tier must start at 0", ErrInvalidTierTable)
	}
	seen := make(map[Tier]bool, len(tiers))
	for i, t := range tiers {
		if t.Tier == "" || seen[t.Tier] {
			return fmt.Errorf("%w: tier %d has a missing or duplicate name", ErrInvalidTierTable, i)
		}
		seen[t.Tier] = true
		if t.MinScore > 100 {
			return fmt.Errorf("%w: %s threshold above 100", ErrInvalidTierTable, t.Tier)
		}
		if i > 0 && t.MinScore <= tiers[i-1].MinScore {
			return fmt.Errorf("%w: thresholds must be strictly ascending", ErrInvalidTierTable)
		}
	}
	return nil
}

// tierFor walks the ladder from the top.
func tierFor(tiers []TierThreshold, score float64) Tier {
	for i := len(tiers) - 1; i >= 0; i-- {
		if score >= tiers[i].MinScore {
			return tiers[i].Tier
		}
	}
	return tiers[0].Tier
}
