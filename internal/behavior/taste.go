// internal/behavior/taste.go
// Taste profile learning from view events

package behavior

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
)

var ErrInvalidTasteConfig = errors.New("invalid taste configuration")

// Population-neutral values used until a user has enough likes.
const (
	neutralMinAge      = 18
	neutralMaxAge      = 65
	neutralAvgAge      = 35.0
	neutralPhotoCount  = 3
	neutralMessage     = "balanced"
	neutralSpeed       = "moderate"
	shortBioMaxChars   = 50
	longBioMinChars    = 150
	fastDwellMs        = 3000
	moderateDwellMs    = 10000
	typicalHoursToKeep = 3
)

// TasteConfig holds the learning constants.
type TasteConfig struct {
	MinSample            int
	TargetSampleCount    int
	MinIntentOccurrences int
	SessionIdle          time.Duration
}

func DefaultTasteConfig() TasteConfig {
	return TasteConfig{
		MinSample:            5,
		TargetSampleCount:    50,
		MinIntentOccurrences: 2,
		SessionIdle:          30 * time.Minute,
	}
}

// TasteBuilder turns an event log into a TasteProfile. Rebuild is a pure
// function of its input.
type TasteBuilder struct {
	cfg TasteConfig
}

func NewTasteBuilder(cfg TasteConfig) (*TasteBuilder, error) {
	switch {
	case cfg.MinSample < 1:
		return nil, fmt.Errorf("%w: min sample must be positive", ErrInvalidTasteConfig)
	case cfg.TargetSampleCount < cfg.MinSample:
		return nil, fmt.Errorf("%w: target sample count below min sample", ErrInvalidTasteConfig)
	case cfg.MinIntentOccurrences < 1:
		return nil, fmt.Errorf("%w: min intent occurrences must be positive", ErrInvalidTasteConfig)
	case cfg.SessionIdle <= 0:
		return nil, fmt.Errorf("%w: session idle must be positive", ErrInvalidTasteConfig)
	}
	return &TasteBuilder{cfg: cfg}, nil
}

func MustNewTasteBuilder(cfg TasteConfig) *TasteBuilder {
	b, err := NewTasteBuilder(cfg)
	if err != nil {
		panic(err)
	}
	return b
}

// Config returns the constants the builder was created with.
func (b *TasteBuilder) Config() TasteConfig { return b.cfg }

// NeutralTasteProfile is what a user with no usable history gets.
func NeutralTasteProfile(userID int64) *TasteProfile {
	return &TasteProfile{
		UserID:             userID,
		AttractionPatterns: neutralAttraction(),
		BehavioralPatterns: neutralBehavior(),
	}
}

func neutralAttraction() AttractionPatterns {
	return AttractionPatterns{
		PreferredAgeRange:               AgeRange{Min: neutralMinAge, Max: neutralMaxAge},
		AvgLikedAge:                     neutralAvgAge,
		BioLengthPreference:             BioMedium,
		PreferredPhotoCount:             neutralPhotoCount,
		PreferredRelationshipStructures: []string{},
		PreferredPace:                   matching.PaceMedium,
	}
}

func neutralBehavior() BehavioralPatterns {
	return BehavioralPatterns{
		TypicalActiveHours: []int{},
		DominantPeriod:     PeriodUnknown,
		MessageStyle:       neutralMessage,
		ResponseSpeed:      neutralSpeed,
	}
}

// Confidence is 0 below the minimum sample and grows linearly to 1 at the
// target sample count.
func (b *TasteBuilder) Confidence(sampleCount int) float64 {
	if sampleCount < b.cfg.MinSample {
		return 0
	}
	return math.Min(1, float64(sampleCount)/float64(b.cfg.TargetSampleCount))
}

// Rebuild derives a full TasteProfile from events. The input is not
// modified and its order does not matter.
func (b *TasteBuilder) Rebuild(events []ViewEvent) *TasteProfile {
	sorted := make([]ViewEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var userID int64
	if len(sorted) > 0 {
		userID = sorted[0].SubjectUserID
	}
	tp := NeutralTasteProfile(userID)
	tp.SampleCount = len(sorted)
	if len(sorted) == 0 {
		return tp
	}

	likes := make([]Snapshot, 0, len(sorted))
	for _, e := range sorted {
		if e.Action.IsPositive() {
			likes = append(likes, e.Snapshot.normalize())
		}
	}
	tp.LikeCount = len(likes)
	tp.LikeRate = float64(len(likes)) / float64(len(sorted))
	if last := sorted[len(sorted)-1].CreatedAt; !last.IsZero() {
		t := last
		tp.LastEventAt = &t
	}

	tp.ConfidenceScore = b.Confidence(len(sorted))
	if tp.ConfidenceScore == 0 {
		return tp
	}

	if len(likes) > 0 {
		tp.AttractionPatterns = b.attraction(likes)
	}
	tp.BehavioralPatterns = b.behavior(sorted, tp.AttractionPatterns.PreferredResponseStyle)
	return tp
}

func (b *TasteBuilder) attraction(likes []Snapshot) AttractionPatterns {
	out := neutralAttraction()

	ages := make([]int, 0, len(likes))
	var bioSum, photoSum, voice int
	for _, s := range likes {
		if s.Age > 0 {
			ages = append(ages, s.Age)
		}
		bioSum += s.BioLength
		photoSum += s.PhotoCount
		if s.HasVoiceIntro {
			voice++
		}
	}

	if len(ages) > 0 {
		sort.Ints(ages)
		if len(ages) >= b.cfg.MinSample {
			out.PreferredAgeRange = AgeRange{Min: percentile(ages, 10), Max: percentile(ages, 90)}
		} else {
			out.PreferredAgeRange = AgeRange{Min: ages[0], Max: ages[len(ages)-1]}
		}
		sum := 0
		for _, a := range ages {
			sum += a
		}
		out.AvgLikedAge = round2(float64(sum) / float64(len(ages)))
	}

	n := float64(len(likes))
	out.BioLengthPreference = BioBucket(int(math.Round(float64(bioSum) / n)))
	out.PreferredPhotoCount = int(math.Round(float64(photoSum) / n))
	out.VoiceIntroAffinity = round2(float64(voice) / n)
	out.PreferredRelationshipStructures = b.rankIntents(likes)

	if pace, ok := modePace(likes); ok {
		out.PreferredPace = pace
	}
	out.PreferredResponseStyle = modeResponseStyle(likes)
	return out
}

// rankIntents orders tags by how many liked profiles carried them, dropping
// tags seen fewer than MinIntentOccurrences times.
func (b *TasteBuilder) rankIntents(likes []Snapshot) []string {
	counts := make(map[string]int)
	for _, s := range likes {
		seen := make(map[string]struct{}, len(s.IntentIDs))
		for _, tag := range s.IntentIDs {
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			counts[tag]++
		}
	}

	tags := make([]string, 0, len(counts))
	for tag, c := range counts {
		if c >= b.cfg.MinIntentOccurrences {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	return tags
}

func (b *TasteBuilder) behavior(events []ViewEvent, style matching.ResponseStyle) BehavioralPatterns {
	out := neutralBehavior()

	var sessions, sessionViews int
	var sessionMins float64
	start := events[0].CreatedAt
	prev := start
	views := 1
	for _, e := range events[1:] {
		if e.CreatedAt.Sub(prev) > b.cfg.SessionIdle {
			sessions++
			sessionViews += views
			sessionMins += prev.Sub(start).Minutes()
			start = e.CreatedAt
			views = 0
		}
		views++
		prev = e.CreatedAt
	}
	sessions++
	sessionViews += views
	sessionMins += prev.Sub(start).Minutes()

	out.AvgSessionDurationMins = round2(sessionMins / float64(sessions))
	out.AvgProfilesViewedPerSession = round2(float64(sessionViews) / float64(sessions))

	var hours [24]int
	var dwell int64
	for _, e := range events {
		hours[e.CreatedAt.Hour()]++
		dwell += e.DwellMs
	}
	out.TypicalActiveHours = topHours(hours, typicalHoursToKeep)
	out.DominantPeriod = dominantPeriod(hours)

	meanDwell := float64(dwell) / float64(len(events))
	switch {
	case meanDwell < fastDwellMs:
		out.ResponseSpeed = "fast"
	case meanDwell < moderateDwellMs:
		out.ResponseSpeed = "moderate"
	default:
		out.ResponseSpeed = "deliberate"
	}

	switch style {
	case matching.ResponseQuick:
		out.MessageStyle = "rapid"
	case matching.ResponseRelaxed:
		out.MessageStyle = "thoughtful"
	default:
		out.MessageStyle = neutralMessage
	}
	return out
}

// BioBucket maps a bio length to short, medium or long.
func BioBucket(length int) string {
	switch {
	case length < shortBioMaxChars:
		return BioShort
	case length > longBioMinChars:
		return BioLong
	default:
		return BioMedium
	}
}

// PeriodOf maps an hour of day to its period.
func PeriodOf(hour int) string {
	switch {
	case hour >= 5 && hour <= 11:
		return PeriodMorning
	case hour >= 12 && hour <= 16:
		return PeriodAfternoon
	case hour >= 17 && hour <= 21:
		return PeriodEvening
	case hour >= 0 && hour <= 23:
		return PeriodNight
	default:
		return PeriodUnknown
	}
}

func dominantPeriod(hours [24]int) string {
	counts := map[string]int{}
	for h, c := range hours {
		counts[PeriodOf(h)] += c
	}
	best, bestCount := PeriodUnknown, 0
	for _, p := range []string{PeriodMorning, PeriodAfternoon, PeriodEvening, PeriodNight} {
		if counts[p] > bestCount {
			best, bestCount = p, counts[p]
		}
	}
	return best
}

// topHours returns up to k busiest hours in ascending order.
func topHours(hours [24]int, k int) []int {
	idx := make([]int, 0, 24)
	for h, c := range hours {
		if c > 0 {
			idx = append(idx, h)
		}
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return hours[idx[i]] > hours[idx[j]]
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	sort.Ints(idx)
	return idx
}

func modePace(likes []Snapshot) (matching.Pace, bool) {
	counts := map[matching.Pace]int{}
	for _, s := range likes {
		if s.PacePreference.Valid() {
			counts[s.PacePreference]++
		}
	}
	var best matching.Pace
	bestCount := 0
	for _, p := range []matching.Pace{matching.PaceSlow, matching.PaceMedium, matching.PaceFast} {
		if counts[p] > bestCount {
			best, bestCount = p, counts[p]
		}
	}
	return best, bestCount > 0
}

func modeResponseStyle(likes []Snapshot) matching.ResponseStyle {
	var quick, relaxed int
	for _, s := range likes {
		switch s.ResponseStyle {
		case matching.ResponseQuick:
			quick++
		case matching.ResponseRelaxed:
			relaxed++
		}
	}
	switch {
	case quick == 0 && relaxed == 0:
		return ""
	case relaxed > quick:
		return matching.ResponseRelaxed
	default:
		return matching.ResponseQuick
	}
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []int, p float64) int {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
