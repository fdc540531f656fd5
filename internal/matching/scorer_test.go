package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullProfile(id int64, age int, intents ...string) *Profile {
	return &Profile{
		ID:             id,
		Age:            age,
		City:           "Berlin",
		Bio:            "Polyamorous hiker, solo-poly leaning, loves long dinners and honest talks about boundaries.",
		IntentIDs:      intents,
		PacePreference: PaceMedium,
		ResponseStyle:  ResponseRelaxed,
		PhotoCount:     4,
	}
}

func TestNewScorerRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Intents = 0.9
	_, err := NewScorer(cfg)
	assert.ErrorIs(t, err, ErrInvalidWeights)

	cfg = DefaultConfig()
	cfg.Weights.Age = -0.2
	cfg.Weights.Intents = 0.75
	_, err = NewScorer(cfg)
	assert.ErrorIs(t, err, ErrInvalidWeights)

	cfg = DefaultConfig()
	cfg.AgeBandYears = 0
	_, err = NewScorer(cfg)
	assert.ErrorIs(t, err, ErrInvalidWeights)

	assert.Panics(t, func() { MustNewScorer(Config{}) })
}

func TestScoreHighCompatibility(t *testing.T) {
	s := MustNewScorer(DefaultConfig())
	a := fullProfile(1, 31, "polyamory", "kitchen_table", "friends_first")
	b := fullProfile(2, 33, "friends_first", "polyamory", "kitchen_table")

	score := s.Score(a, b)
	assert.GreaterOrEqual(t, score, 75.0)
	assert.LessOrEqual(t, score, 100.0)

	breakdown := s.Explain(a, b)
	assert.Equal(t, []string{"friends_first", "kitchen_table", "polyamory"}, breakdown.SharedIntents)
	assert.Equal(t, 1.0, breakdown.IntentOverlap)
	assert.Contains(t, breakdown.Reasons, "same pace")
}

func TestScoreDeterministicAndSymmetric(t *testing.T) {
	s := MustNewScorer(DefaultConfig())
	a := fullProfile(1, 28, "polyamory", "casual")
	b := fullProfile(2, 41, "casual", "open")
	b.PacePreference = PaceFast
	b.City = "Hamburg"

	first := s.Score(a, b)
	assert.Equal(t, first, s.Score(a, b))
	assert.Equal(t, first, s.Score(b, a))
}

func TestScoreBounded(t *testing.T) {
	s := MustNewScorer(DefaultConfig())
	profiles := []*Profile{
		nil,
		{},
		{Age: 18, PacePreference: PaceSlow, ResponseStyle: ResponseQuick, City: "Lagos"},
		{Age: 99, PacePreference: PaceFast, ResponseStyle: ResponseRelaxed, City: "Oslo", IntentIDs: []string{"x"}},
		{Age: -4, PhotoCount: -2, PacePreference: "sideways", ResponseStyle: "never"},
		fullProfile(9, 35, "polyamory"),
		{Bio: string(make([]rune, 5000)), PhotoCount: 50, IntentIDs: []string{"a", "b", "c", "d"}},
	}

	for _, a := range profiles {
		for _, b := range profiles {
			score := s.Score(a, b)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	}
}

func TestMissingFieldsAreNeutral(t *testing.T) {
	s := MustNewScorer(DefaultConfig())
	b := s.Explain(&Profile{}, &Profile{})

	assert.Equal(t, 0.5, b.IntentOverlap)
	assert.Equal(t, 0.5, b.AgeProximity)
	assert.Equal(t, 0.5, b.PaceFit)
	assert.Equal(t, 0.5, b.ResponseFit)
	assert.Equal(t, 0.5, b.Locality)
	assert.Equal(t, 0.0, b.ProfileQuality)
	assert.Equal(t, 45.0, b.Total)
}

func TestSharedIntentsMonotonic(t *testing.T) {
	s := MustNewScorer(DefaultConfig())
	extra := []string{"polyamory", "kitchen_table", "friends_first", "hierarchical", "relationship_anarchy"}

	starts := []struct {
		name string
		a, b []string
	}{
		{"both empty", nil, nil},
		{"one empty", nil, []string{"casual", "open"}},
		{"disjoint", []string{"casual"}, []string{"open", "swinging"}},
		{"overlapping", []string{"casual", "open"}, []string{"open", "swinging"}},
	}

	for _, tt := range starts {
		t.Run(tt.name, func(t *testing.T) {
			a := fullProfile(1, 30, tt.a...)
			b := fullProfile(2, 36, tt.b...)
			prev := s.Score(a, b)
			for _, tag := range extra {
				a.IntentIDs = append(a.IntentIDs, tag)
				b.IntentIDs = append(b.IntentIDs, tag)
				next := s.Score(a, b)
				assert.GreaterOrEqual(t, next, prev, "adding shared %q lowered the score", tag)
				prev = next
			}
		})
	}
}

func TestPaceAndResponseFit(t *testing.T) {
	assert.Equal(t, 1.0, PaceFit(PaceSlow, PaceSlow))
	assert.Equal(t, 0.5, PaceFit(PaceSlow, PaceMedium))
	assert.Equal(t, 0.0, PaceFit(PaceSlow, PaceFast))
	assert.Equal(t, 0.5, PaceFit("", PaceFast))

	assert.Equal(t, 1.0, ResponseFit(ResponseQuick, ResponseQuick))
	assert.Equal(t, 0.0, ResponseFit(ResponseQuick, ResponseRelaxed))
	assert.Equal(t, 0.5, ResponseFit(ResponseQuick, ""))
}

func TestAgeProximitySaturates(t *testing.T) {
	s := MustNewScorer(DefaultConfig())
	assert.Equal(t, 1.0, s.ageScore(30, 30))
	assert.InDelta(t, 0.8, s.ageScore(30, 32), 1e-9)
	assert.Equal(t, 0.0, s.ageScore(30, 40))
	assert.Equal(t, 0.0, s.ageScore(20, 60))
}

func TestLocality(t *testing.T) {
	a := &Profile{City: "Berlin"}
	b := &Profile{City: " berlin "}
	c := &Profile{City: "Paris"}
	v := &Profile{City: "Paris", VirtualOnly: true}

	assert.Equal(t, 1.0, localityScore(a, b))
	assert.Equal(t, otherCityCredit, localityScore(a, c))
	assert.Equal(t, 0.5, localityScore(a, v))
	assert.Equal(t, 0.5, localityScore(a, &Profile{}))
}

func TestBreakdownIsStable(t *testing.T) {
	s := MustNewScorer(DefaultConfig())
	a := fullProfile(1, 30, "c", "b", "a")
	b := fullProfile(2, 30, "a", "b", "c")

	require.Equal(t, s.Explain(a, b), s.Explain(a, b))
}
