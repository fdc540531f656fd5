// internal/behavior/models.go

package behavior

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
)

// Action is the decision a viewer made on a shown profile.
type Action string

const (
	ActionLike      Action = "like"
	ActionPass      Action = "pass"
	ActionSuperLike Action = "super_like"
)

func (a Action) Valid() bool {
	switch a {
	case ActionLike, ActionPass, ActionSuperLike:
		return true
	}
	return false
}

// IsPositive reports whether the action counts as a like for taste learning.
func (a Action) IsPositive() bool {
	return a == ActionLike || a == ActionSuperLike
}

// Snapshot is what the viewer saw at decision time.
type Snapshot struct {
	Age            int                    `json:"age"`
	IntentIDs      []string               `json:"intent_ids"`
	BioLength      int                    `json:"bio_length"`
	PhotoCount     int                    `json:"photo_count"`
	HasVoiceIntro  bool                   `json:"has_voice_intro"`
	PacePreference matching.Pace          `json:"pace_preference"`
	ResponseStyle  matching.ResponseStyle `json:"response_style"`
}

// SnapshotFromProfile captures the fields of p that taste learning reads.
func SnapshotFromProfile(p *matching.Profile, hasVoiceIntro bool) Snapshot {
	if p == nil {
		return Snapshot{IntentIDs: []string{}}
	}
	intents := make([]string, len(p.IntentIDs))
	copy(intents, p.IntentIDs)
	return Snapshot{
		Age:            p.Age,
		IntentIDs:      intents,
		BioLength:      p.BioLength(),
		PhotoCount:     p.PhotoCount,
		HasVoiceIntro:  hasVoiceIntro,
		PacePreference: p.PacePreference,
		ResponseStyle:  p.ResponseStyle,
	}
}

// normalize clamps counts and blanks unknown enum values so aggregates never
// see impossible numbers.
func (s Snapshot) normalize() Snapshot {
	if s.Age < 0 {
		s.Age = 0
	}
	if s.BioLength < 0 {
		s.BioLength = 0
	}
	if s.PhotoCount < 0 {
		s.PhotoCount = 0
	}
	if s.IntentIDs == nil {
		s.IntentIDs = []string{}
	}
	if s.PacePreference != "" && !s.PacePreference.Valid() {
		s.PacePreference = ""
	}
	if s.ResponseStyle != "" && !s.ResponseStyle.Valid() {
		s.ResponseStyle = ""
	}
	return s
}

// Value implements driver.Valuer so snapshots are stored as JSONB.
func (s Snapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Snapshot) Scan(value interface{}) error {
	if value == nil {
		*s = Snapshot{IntentIDs: []string{}}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("snapshot: unsupported scan type")
	}
	return json.Unmarshal(raw, s)
}

// ViewEvent is one profile view that ended in a decision. Events are
// append-only.
type ViewEvent struct {
	ID            uuid.UUID `json:"id" db:"id"`
	SubjectUserID int64     `json:"subject_user_id" db:"subject_user_id" validate:"required,gt=0"`
	ViewedUserID  int64     `json:"viewed_user_id" db:"viewed_user_id" validate:"required,gt=0,nefield=SubjectUserID"`
	DwellMs       int64     `json:"dwell_ms" db:"dwell_ms" validate:"gte=0"`
	Action        Action    `json:"action" db:"action" validate:"required,oneof=like pass super_like"`
	Snapshot      Snapshot  `json:"snapshot" db:"snapshot"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Bio length buckets.
const (
	BioShort  = "short"
	BioMedium = "medium"
	BioLong   = "long"
)

// Periods of the day used to summarize active hours.
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
	PeriodEvening   = "evening"
	PeriodNight     = "night"
	PeriodUnknown   = "unknown"
)

// AgeRange is an inclusive age interval.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// AttractionPatterns describes what a user tends to like.
type AttractionPatterns struct {
	PreferredAgeRange               AgeRange               `json:"preferred_age_range"`
	AvgLikedAge                     float64                `json:"avg_liked_age"`
	BioLengthPreference             string                 `json:"bio_length_preference"`
	PreferredPhotoCount             int                    `json:"preferred_photo_count"`
	PreferredRelationshipStructures []string               `json:"preferred_relationship_structures"`
	PreferredPace                   matching.Pace          `json:"preferred_pace"`
	PreferredResponseStyle          matching.ResponseStyle `json:"preferred_response_style"`
	VoiceIntroAffinity              float64                `json:"voice_intro_affinity"`
}

// BehavioralPatterns describes how a user uses discovery.
type BehavioralPatterns struct {
	AvgSessionDurationMins      float64 `json:"avg_session_duration_mins"`
	AvgProfilesViewedPerSession float64 `json:"avg_profiles_viewed_per_session"`
	TypicalActiveHours          []int   `json:"typical_active_hours"`
	DominantPeriod              string  `json:"dominant_period"`
	MessageStyle                string  `json:"message_style"`
	ResponseSpeed               string  `json:"response_speed"`
}

// TasteProfile is derived entirely from a user's view events and can be
// rebuilt at any time.
type TasteProfile struct {
	UserID             int64              `json:"user_id"`
	AttractionPatterns AttractionPatterns `json:"attraction_patterns"`
	BehavioralPatterns BehavioralPatterns `json:"behavioral_patterns"`
	ConfidenceScore    float64            `json:"confidence_score"`
	SampleCount        int                `json:"sample_count"`
	LikeCount          int                `json:"like_count"`
	LikeRate           float64            `json:"like_rate"`
	LastEventAt        *time.Time         `json:"last_event_at,omitempty"`
}

// Value implements driver.Valuer so taste profiles are stored as JSONB.
func (t TasteProfile) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *TasteProfile) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("taste profile: unsupported scan type")
	}
	return json.Unmarshal(raw, t)
}

// TrackViewRequest is the body of POST /behavior/views.
type TrackViewRequest struct {
	ViewedUserID int64    `json:"viewed_user_id" validate:"required,gt=0"`
	DwellMs      int64    `json:"dwell_ms"`
	Action       Action   `json:"action" validate:"required"`
	Snapshot     Snapshot `json:"snapshot"`
}
