package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imadgeboyega/kiekky-scoring/internal/behavior"
	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
)

// fixedScorer scores candidates from a lookup table.
type fixedScorer map[int64]float64

func (f fixedScorer) Score(_, candidate *matching.Profile) float64 {
	return f[candidate.ID]
}

func profiles(ids ...int64) []*matching.Profile {
	out := make([]*matching.Profile, len(ids))
	for i, id := range ids {
		out[i] = &matching.Profile{ID: id}
	}
	return out
}

func ids(ps []*matching.Profile) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

var viewer = &matching.Profile{ID: 99}

func TestRankOrdersByScoreDescending(t *testing.T) {
	scores := fixedScorer{1: 10, 2: 90, 3: 50, 4: 70, 5: 30}
	r := NewRanker(scores, DefaultRankerConfig())

	got := r.Rank(profiles(1, 2, 3, 4, 5), viewer, nil, nil, RankOptions{})
	assert.Equal(t, []int64{2, 4, 3, 5, 1}, ids(got))
}

func TestRankBreaksTiesById(t *testing.T) {
	scores := fixedScorer{8: 50, 3: 50, 5: 70, 1: 20}
	r := NewRanker(scores, DefaultRankerConfig())

	for i := 0; i < 10; i++ {
		got := r.Rank(profiles(8, 1, 3, 5), viewer, nil, nil, RankOptions{})
		assert.Equal(t, []int64{5, 3, 8, 1}, ids(got))
	}
	got := r.Rank(profiles(5, 3, 1, 8), viewer, nil, nil, RankOptions{})
	assert.Equal(t, []int64{5, 3, 8, 1}, ids(got))
}

func TestRankFiltersSeenViewerAndDuplicates(t *testing.T) {
	scores := fixedScorer{1: 10, 2: 20, 3: 30, 99: 100}
	r := NewRanker(scores, DefaultRankerConfig())

	candidates := append(profiles(1, 2, 3, 99, 3), nil)
	got := r.Rank(candidates, viewer, nil, map[int64]struct{}{2: {}}, RankOptions{})
	assert.Equal(t, []int64{3, 1}, ids(got))
}

func TestRankLimit(t *testing.T) {
	scores := fixedScorer{1: 10, 2: 20, 3: 30}
	r := NewRanker(scores, DefaultRankerConfig())

	got := r.Rank(profiles(1, 2, 3), viewer, nil, nil, RankOptions{Limit: 2})
	assert.Equal(t, []int64{3, 2}, ids(got))
}

func tasteFor(confidence float64) *behavior.TasteProfile {
	tp := behavior.NeutralTasteProfile(99)
	tp.ConfidenceScore = confidence
	tp.AttractionPatterns.PreferredAgeRange = behavior.AgeRange{Min: 30, Max: 35}
	return tp
}

func TestTasteAdjustsOnlyAboveConfidenceThreshold(t *testing.T) {
	scores := fixedScorer{1: 60, 2: 58}
	r := NewRanker(scores, RankerConfig{MinTasteConfidence: 0.3, TasteWeight: 0.5})

	// 1 scores higher but is far outside the learned age range
	candidates := []*matching.Profile{{ID: 1, Age: 55}, {ID: 2, Age: 32}}

	low := r.RankScored(candidates, viewer, tasteFor(0.2), nil, RankOptions{Personalize: true})
	assert.Equal(t, int64(1), low[0].Profile.ID)
	assert.False(t, low[0].Personalized)
	assert.Equal(t, 60.0, low[0].Score)

	// Confidence has to exceed the threshold, reaching it is not enough
	atThreshold := r.RankScored(candidates, viewer, tasteFor(0.3), nil, RankOptions{Personalize: true})
	assert.False(t, atThreshold[0].Personalized)
	assert.False(t, r.Personalizes(tasteFor(0.3), RankOptions{Personalize: true}))
	assert.True(t, r.Personalizes(tasteFor(0.31), RankOptions{Personalize: true}))

	high := r.RankScored(candidates, viewer, tasteFor(1), nil, RankOptions{Personalize: true})
	require.Len(t, high, 2)
	assert.Equal(t, int64(2), high[0].Profile.ID)
	assert.True(t, high[0].Personalized)
	for _, c := range high {
		assert.InDelta(t, c.BaseScore*0.5+100*c.TasteMatch*0.5, c.Score, 1e-9)
	}

	off := r.RankScored(candidates, viewer, tasteFor(1), nil, RankOptions{Personalize: false})
	assert.Equal(t, int64(1), off[0].Profile.ID)
	assert.Equal(t, 0.0, off[0].TasteMatch)
}

func TestTasteWeightScalesWithConfidence(t *testing.T) {
	scores := fixedScorer{1: 40}
	r := NewRanker(scores, RankerConfig{MinTasteConfidence: 0.3, TasteWeight: 0.4})
	c := []*matching.Profile{{ID: 1, Age: 32}}

	got := r.RankScored(c, viewer, tasteFor(0.5), nil, RankOptions{Personalize: true})
	w := 0.4 * 0.5
	assert.InDelta(t, 40*(1-w)+100*got[0].TasteMatch*w, got[0].Score, 1e-9)
}

func TestRankWithRealScorerIsDeterministic(t *testing.T) {
	r := NewRanker(matching.MustNewScorer(matching.DefaultConfig()), DefaultRankerConfig())
	v := &matching.Profile{ID: 1, Age: 30, IntentIDs: []string{"poly"}, PacePreference: matching.PaceSlow}
	candidates := []*matching.Profile{
		{ID: 2, Age: 31, IntentIDs: []string{"poly"}, PacePreference: matching.PaceSlow},
		{ID: 3, Age: 50, IntentIDs: []string{"casual"}, PacePreference: matching.PaceFast},
		{ID: 4, Age: 30, IntentIDs: []string{"poly"}, PacePreference: matching.PaceMedium},
		{ID: 5},
	}

	first := ids(r.Rank(candidates, v, nil, nil, RankOptions{}))
	second := ids(r.Rank(candidates, v, nil, nil, RankOptions{}))
	assert.Equal(t, first, second)
	assert.Equal(t, int64(2), first[0])
	assert.Equal(t, int64(3), first[len(first)-1])
}
