package behavior

import (
	"math"

	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
)

const (
	ageDecayYears   = 5.0
	photoDecayCount = 4.0
	neutralMatch    = 0.5
)

// Match returns how well p fits the attraction patterns, in [0,1]. Missing
// candidate fields count as neutral.
func (t *TasteProfile) Match(p *matching.Profile) float64 {
	if t == nil || p == nil {
		return neutralMatch
	}
	a := t.AttractionPatterns

	parts := []float64{
		ageMatch(a.PreferredAgeRange, p.Age),
		bioMatch(a.BioLengthPreference, p.BioLength()),
		photoMatch(a.PreferredPhotoCount, p.PhotoCount),
		intentMatch(a.PreferredRelationshipStructures, p.IntentIDs),
		matching.PaceFit(a.PreferredPace, p.PacePreference),
	}

	var sum float64
	for _, v := range parts {
		sum += v
	}
	return math.Max(0, math.Min(1, sum/float64(len(parts))))
}

func ageMatch(r AgeRange, age int) float64 {
	if age <= 0 || r.Max < r.Min {
		return neutralMatch
	}
	var dist float64
	switch {
	case age < r.Min:
		dist = float64(r.Min - age)
	case age > r.Max:
		dist = float64(age - r.Max)
	default:
		return 1
	}
	return math.Max(0, 1-dist/ageDecayYears)
}

var bioRank = map[string]int{BioShort: 0, BioMedium: 1, BioLong: 2}

func bioMatch(pref string, length int) float64 {
	want, ok := bioRank[pref]
	if !ok {
		return neutralMatch
	}
	switch diff := want - bioRank[BioBucket(length)]; {
	case diff == 0:
		return 1
	case diff == 1 || diff == -1:
		return 0.5
	default:
		return 0
	}
}

func photoMatch(pref, count int) float64 {
	if count < 0 {
		count = 0
	}
	diff := math.Abs(float64(pref - count))
	return math.Max(0, 1-diff/photoDecayCount)
}

func intentMatch(preferred, candidate []string) float64 {
	if len(preferred) == 0 || len(candidate) == 0 {
		return neutralMatch
	}
	want := make(map[string]struct{}, len(preferred))
	for _, tag := range preferred {
		want[tag] = struct{}{}
	}
	hits := 0
	seen := make(map[string]struct{}, len(candidate))
	for _, tag := range candidate {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := want[tag]; ok {
			hits++
		}
	}
	denom := len(want)
	if len(seen) < denom {
		denom = len(seen)
	}
	return float64(hits) / float64(denom)
}
