package matching

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	neutral = 0.5

	// Credit for two cities that are known and different.
	otherCityCredit = 0.3

	// Bio length and photo count at which completeness saturates.
	fullBioChars   = 100.0
	fullPhotoCount = 4.0
)

var ErrInvalidWeights = errors.New("invalid compatibility weights")

// Weights controls how much each sub-score contributes. They must be
// non-negative and sum to 1.
type Weights struct {
	Intents  float64 `json:"intents"`
	Age      float64 `json:"age"`
	Pace     float64 `json:"pace"`
	Response float64 `json:"response"`
	Locality float64 `json:"locality"`
	Quality  float64 `json:"quality"`
}

var DefaultWeights = Weights{
	Intents:  0.35,
	Age:      0.20,
	Pace:     0.15,
	Response: 0.10,
	Locality: 0.10,
	Quality:  0.10,
}

func (w Weights) sum() float64 {
	return w.Intents + w.Age + w.Pace + w.Response + w.Locality + w.Quality
}

func (w Weights) validate() error {
	for _, v := range []float64{w.Intents, w.Age, w.Pace, w.Response, w.Locality, w.Quality} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, v)
		}
	}
	if math.Abs(w.sum()-1) > 1e-6 {
		return fmt.Errorf("%w: weights sum to %.4f", ErrInvalidWeights, w.sum())
	}
	return nil
}

type Config struct {
	Weights Weights
	// AgeBandYears is the age gap at which age proximity reaches zero.
	AgeBandYears float64
}

func DefaultConfig() Config {
	return Config{Weights: DefaultWeights, AgeBandYears: 10}
}

// Scorer computes pairwise compatibility in [0,100]. It is pure and
// symmetric: Score(a, b) == Score(b, a).
type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Weights.validate(); err != nil {
		return nil, err
	}
	if cfg.AgeBandYears <= 0 || math.IsNaN(cfg.AgeBandYears) {
		return nil, fmt.Errorf("%w: age band must be positive", ErrInvalidWeights)
	}
	return &Scorer{cfg: cfg}, nil
}

// MustNewScorer panics on a bad configuration. Meant for static defaults.
func MustNewScorer(cfg Config) *Scorer {
	s, err := NewScorer(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Score returns the compatibility of two profiles.
func (s *Scorer) Score(viewer, candidate *Profile) float64 {
	return s.Explain(viewer, candidate).Total
}

// Explain returns the compatibility score together with its sub-scores.
func (s *Scorer) Explain(viewer, candidate *Profile) *Breakdown {
	if viewer == nil {
		viewer = &Profile{}
	}
	if candidate == nil {
		candidate = &Profile{}
	}

	b := &Breakdown{}
	b.IntentOverlap, b.SharedIntents = intentScore(viewer.IntentIDs, candidate.IntentIDs)
	b.AgeProximity = s.ageScore(viewer.Age, candidate.Age)
	b.PaceFit = PaceFit(viewer.PacePreference, candidate.PacePreference)
	b.ResponseFit = ResponseFit(viewer.ResponseStyle, candidate.ResponseStyle)
	b.Locality = localityScore(viewer, candidate)
	b.ProfileQuality = (completeness(viewer) + completeness(candidate)) / 2

	w := s.cfg.Weights
	total := b.IntentOverlap*w.Intents +
		b.AgeProximity*w.Age +
		b.PaceFit*w.Pace +
		b.ResponseFit*w.Response +
		b.Locality*w.Locality +
		b.ProfileQuality*w.Quality

	b.Total = clamp(math.Round(total*10000)/100, 0, 100)
	b.Reasons = reasons(b)
	return b
}

// intentScore is neutral when either side has not chosen any intents, zero
// when both have and nothing overlaps, and 0.5 + 0.5*jaccard otherwise.
func intentScore(a, b []string) (float64, []string) {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return neutral, []string{}
	}

	shared := make([]string, 0)
	for tag := range setA {
		if _, ok := setB[tag]; ok {
			shared = append(shared, tag)
		}
	}
	sort.Strings(shared)

	if len(shared) == 0 {
		return 0, shared
	}

	union := len(setA) + len(setB) - len(shared)
	jaccard := float64(len(shared)) / float64(union)
	return neutral + neutral*jaccard, shared
}

func (s *Scorer) ageScore(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return neutral
	}
	diff := math.Abs(float64(a - b))
	return clamp(1-diff/s.cfg.AgeBandYears, 0, 1)
}

// PaceFit is 1 for equal paces, 0.5 for adjacent ones, 0 for opposite ones
// and neutral when either is unknown.
func PaceFit(a, b Pace) float64 {
	ra, rb := a.rank(), b.rank()
	if ra < 0 || rb < 0 {
		return neutral
	}
	switch abs(ra - rb) {
	case 0:
		return 1
	case 1:
		return 0.5
	default:
		return 0
	}
}

// ResponseFit is 1 for equal styles, 0 for different ones and neutral when
// either is unknown.
func ResponseFit(a, b ResponseStyle) float64 {
	if !a.Valid() || !b.Valid() {
		return neutral
	}
	if a == b {
		return 1
	}
	return 0
}

func localityScore(a, b *Profile) float64 {
	if a.VirtualOnly || b.VirtualOnly {
		return neutral
	}
	cityA := strings.TrimSpace(a.City)
	cityB := strings.TrimSpace(b.City)
	if cityA == "" || cityB == "" {
		return neutral
	}
	if strings.EqualFold(cityA, cityB) {
		return 1
	}
	return otherCityCredit
}

// completeness rewards a written bio and a few photos.
func completeness(p *Profile) float64 {
	bio := math.Min(float64(p.BioLength())/fullBioChars, 1)
	photos := math.Min(float64(max(p.PhotoCount, 0))/fullPhotoCount, 1)
	return 0.5*bio + 0.5*photos
}

func reasons(b *Breakdown) []string {
	out := []string{}
	if len(b.SharedIntents) > 0 {
		out = append(out, fmt.Sprintf("shares %d relationship intent(s)", len(b.SharedIntents)))
	}
	if b.AgeProximity >= 0.8 {
		out = append(out, "close in age")
	}
	if b.PaceFit == 1 {
		out = append(out, "same pace")
	}
	if b.ResponseFit == 1 {
		out = append(out, "same texting style")
	}
	if b.Locality == 1 {
		out = append(out, "lives in your city")
	}
	return out
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
