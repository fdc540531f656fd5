// internal/discovery/ranker.go
// Orders a candidate list for one viewer

package discovery

import (
	"sort"

	"github.com/imadgeboyega/kiekky-scoring/internal/behavior"
	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
)

// Scorer returns a compatibility score in [0,100].
type Scorer interface {
	Score(viewer, candidate *matching.Profile) float64
}

type RankerConfig struct {
	// Taste only adjusts scores once confidence exceeds this.
	MinTasteConfidence float64
	// Share of the final score taken by taste at full confidence.
	TasteWeight float64
}

func DefaultRankerConfig() RankerConfig {
	return RankerConfig{MinTasteConfidence: 0.3, TasteWeight: 0.3}
}

type RankOptions struct {
	Personalize bool
	Limit       int
}

// ScoredCandidate is a ranked candidate with the numbers behind its rank.
type ScoredCandidate struct {
	Profile      *matching.Profile `json:"profile"`
	BaseScore    float64           `json:"base_score"`
	TasteMatch   float64           `json:"taste_match"`
	Score        float64           `json:"score"`
	Personalized bool              `json:"personalized"`
}

type Ranker struct {
	scorer Scorer
	cfg    RankerConfig
}

func NewRanker(scorer Scorer, cfg RankerConfig) *Ranker {
	cfg.MinTasteConfidence = clamp01(cfg.MinTasteConfidence)
	cfg.TasteWeight = clamp01(cfg.TasteWeight)
	return &Ranker{scorer: scorer, cfg: cfg}
}

// Rank returns candidates best first.
func (r *Ranker) Rank(candidates []*matching.Profile, viewer *matching.Profile, taste *behavior.TasteProfile, alreadySeen map[int64]struct{}, opts RankOptions) []*matching.Profile {
	scored := r.RankScored(candidates, viewer, taste, alreadySeen, opts)
	out := make([]*matching.Profile, len(scored))
	for i, c := range scored {
		out[i] = c.Profile
	}
	return out
}

// Personalizes reports whether taste will adjust scores under opts.
func (r *Ranker) Personalizes(taste *behavior.TasteProfile, opts RankOptions) bool {
	return opts.Personalize && taste != nil && taste.ConfidenceScore > r.cfg.MinTasteConfidence
}

// RankScored drops the viewer, already seen and duplicate candidates, scores
// the rest and sorts by score descending, then id ascending.
func (r *Ranker) RankScored(candidates []*matching.Profile, viewer *matching.Profile, taste *behavior.TasteProfile, alreadySeen map[int64]struct{}, opts RankOptions) []ScoredCandidate {
	var viewerID int64
	if viewer != nil {
		viewerID = viewer.ID
	}

	weight := 0.0
	personalize := r.Personalizes(taste, opts)
	if personalize {
		weight = r.cfg.TasteWeight * clamp01(taste.ConfidenceScore)
	}

	out := make([]ScoredCandidate, 0, len(candidates))
	included := make(map[int64]struct{}, len(candidates))
	for _, c := range candidates {
		if c == nil || c.ID == viewerID {
			continue
		}
		if _, seen := alreadySeen[c.ID]; seen {
			continue
		}
		if _, dup := included[c.ID]; dup {
			continue
		}
		included[c.ID] = struct{}{}

		base := r.scorer.Score(viewer, c)
		sc := ScoredCandidate{Profile: c, BaseScore: base, Score: base}
		if personalize {
			sc.TasteMatch = taste.Match(c)
			sc.Score = base*(1-weight) + 100*sc.TasteMatch*weight
			sc.Personalized = true
		}
		out = append(out, sc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Profile.ID < out[j].Profile.ID
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
