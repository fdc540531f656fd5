// internal/trust/engine.go
// Trust scoring: six weighted dimensions, a tier ladder and badges

package trust

import (
	"fmt"
	"math"
)

const neutralScore = 50.0

// Weights per dimension. They sum to 1.
var dimensionWeights = map[Dimension]float64{
	DimensionBehavior:     0.15,
	DimensionCommunity:    0.20,
	DimensionReliability:  0.20,
	DimensionSafety:       0.20,
	DimensionEngagement:   0.10,
	DimensionTransparency: 0.15,
}

var dimensionOrder = []Dimension{
	DimensionBehavior,
	DimensionCommunity,
	DimensionReliability,
	DimensionSafety,
	DimensionEngagement,
	DimensionTransparency,
}

var dimensionDescriptions = map[Dimension]string{
	DimensionBehavior:     "Ratings and reviews from past dates",
	DimensionCommunity:    "Vouches and event participation",
	DimensionReliability:  "Showing up to planned dates",
	DimensionSafety:       "Verification and moderation history",
	DimensionEngagement:   "Responsiveness and recent activity",
	DimensionTransparency: "Sexual health disclosure and profile completeness",
}

// DimensionWeight returns the fixed weight of d.
func DimensionWeight(d Dimension) float64 { return dimensionWeights[d] }

// Dimensions lists the dimensions in display order.
func Dimensions() []Dimension {
	out := make([]Dimension, len(dimensionOrder))
	copy(out, dimensionOrder)
	return out
}

type EngineConfig struct {
	Tiers             []TierThreshold
	RespectfulMinDays int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Tiers:             DefaultTiers(),
		RespectfulMinDays: 90,
	}
}

// Engine computes trust scores. It holds no state besides its
// configuration and is safe for concurrent use.
type Engine struct {
	cfg EngineConfig
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := validateTiers(cfg.Tiers); err != nil {
		return nil, err
	}
	if cfg.RespectfulMinDays < 0 {
		return nil, fmt.Errorf("respectful min days must not be negative")
	}
	tiers := make([]TierThreshold, len(cfg.Tiers))
	copy(tiers, cfg.Tiers)
	cfg.Tiers = tiers
	return &Engine{cfg: cfg}, nil
}

func MustNewEngine(cfg EngineConfig) *Engine {
	e, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// Compute scores stats with no badge history.
func (e *Engine) Compute(stats ActivityStats) *TrustScore {
	return e.ComputeWithHistory(stats, nil)
}

// ComputeWithHistory scores stats and unions the freshly earned badges
// with the ones already earned, so recomputing never takes a badge away.
func (e *Engine) ComputeWithHistory(stats ActivityStats, earned []Badge) *TrustScore {
	s := &stats

	raw := map[Dimension]float64{
		DimensionBehavior:     behaviorScore(s),
		DimensionCommunity:    communityScore(s),
		DimensionReliability:  reliabilityScore(s),
		DimensionSafety:       safetyScore(s),
		DimensionEngagement:   engagementScore(s),
		DimensionTransparency: transparencyScore(s),
	}

	dims := make(map[Dimension]DimensionScore, len(raw))
	var overall float64
	for _, d := range dimensionOrder {
		score := round2(clamp(raw[d], 0, 100))
		dims[d] = DimensionScore{
			Score:       score,
			Weight:      dimensionWeights[d],
			Description: dimensionDescriptions[d],
		}
		overall += score * dimensionWeights[d]
	}
	overall = clamp(overall, 0, 100)

	return &TrustScore{
		UserID:       stats.UserID,
		OverallScore: overall,
		Tier:         tierFor(e.cfg.Tiers, overall),
		Badges:       unionBadges(earned, e.earnedBadges(s)),
		Dimensions:   dims,
		Stats:        stats,
	}
}

// behaviorScore starts neutral and moves toward the average rating as
// reviews accumulate. Reports that were dismissed still cost a little.
func behaviorScore(s *ActivityStats) float64 {
	score := neutralScore
	if s.ReviewsReceived > 0 {
		weight := math.Min(1, float64(s.ReviewsReceived)/5)
		rating := clamp(s.AverageRating/5*100, 0, 100)
		score = neutralScore*(1-weight) + rating*weight
	}
	dismissed := s.ReportsReceived - s.ReportsUpheld
	if dismissed > 0 {
		score -= math.Min(20, float64(dismissed)*5)
	}
	return score
}

func communityScore(s *ActivityStats) float64 {
	return math.Min(100, float64(s.VouchesReceived)*15+float64(s.EventsAttended)*5+float64(s.EventsHosted)*10)
}

// reliabilityScore weighs a no-show twice as heavily as a cancellation.
func reliabilityScore(s *ActivityStats) float64 {
	if s.DatesCompleted+s.DatesCancelled+s.NoShows <= 0 {
		return neutralScore
	}
	denom := float64(s.DatesCompleted + s.DatesCancelled + 2*s.NoShows)
	if denom <= 0 {
		return neutralScore
	}
	return float64(s.DatesCompleted) / denom * 100
}

func safetyScore(s *ActivityStats) float64 {
	score := neutralScore
	if s.PhotoVerified {
		score += 25
	}
	if s.IDVerified {
		score += 25
	}
	return score - 25*float64(s.ReportsUpheld)
}

func engagementScore(s *ActivityStats) float64 {
	rate := clamp(s.ResponseRate, 0, 1)
	active := clamp(float64(s.ActiveDaysLast30)/30, 0, 1)
	return rate*70 + active*30
}

func transparencyScore(s *ActivityStats) float64 {
	return 0.7*stiCadence(s) + 0.3*clamp(s.ProfileCompleteness, 0, 1)*100
}

// stiCadence rewards recent disclosures.
func stiCadence(s *ActivityStats) float64 {
	if s.STIDisclosures <= 0 || s.DaysSinceSTIDisclosure < 0 {
		return 0
	}
	switch d := s.DaysSinceSTIDisclosure; {
	case d <= 90:
		return 100
	case d <= 180:
		return 70
	case d <= 365:
		return 40
	default:
		return 10
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
