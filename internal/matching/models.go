package matching

import (
	"strings"
	"time"
)

// Pace is how quickly someone likes a connection to progress.
type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceMedium Pace = "medium"
	PaceFast   Pace = "fast"
)

// rank orders paces so adjacency can be measured. Unknown values return -1.
func (p Pace) rank() int {
	switch p {
	case PaceSlow:
		return 0
	case PaceMedium:
		return 1
	case PaceFast:
		return 2
	default:
		return -1
	}
}

// Valid reports whether p is one of the known paces.
func (p Pace) Valid() bool { return p.rank() >= 0 }

// ResponseStyle is how someone tends to reply to messages.
type ResponseStyle string

const (
	ResponseQuick   ResponseStyle = "quick"
	ResponseRelaxed ResponseStyle = "relaxed"
)

// Valid reports whether s is one of the known response styles.
func (s ResponseStyle) Valid() bool {
	return s == ResponseQuick || s == ResponseRelaxed
}

// Profile is the slice of a member's profile the scorers read. The profile
// service owns it; scoring never mutates it.
type Profile struct {
	ID             int64         `json:"id"`
	DisplayName    string        `json:"display_name"`
	Age            int           `json:"age"`
	City           string        `json:"city"`
	Bio            string        `json:"bio"`
	IntentIDs      []string      `json:"intent_ids"`
	PacePreference Pace          `json:"pace_preference"`
	ResponseStyle  ResponseStyle `json:"response_style"`
	PhotoCount     int           `json:"photo_count"`
	VirtualOnly    bool          `json:"virtual_only"`
	IsVerified     bool          `json:"is_verified"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// BioLength is the trimmed length of the bio in characters.
func (p *Profile) BioLength() int {
	return len([]rune(strings.TrimSpace(p.Bio)))
}

// Breakdown explains a compatibility score. Sub-scores are in [0,1],
// Total is in [0,100].
type Breakdown struct {
	IntentOverlap  float64  `json:"intent_overlap"`
	AgeProximity   float64  `json:"age_proximity"`
	PaceFit        float64  `json:"pace_fit"`
	ResponseFit    float64  `json:"response_fit"`
	Locality       float64  `json:"locality"`
	ProfileQuality float64  `json:"profile_quality"`
	SharedIntents  []string `json:"shared_intents"`
	Total          float64  `json:"total"`
	Reasons        []string `json:"reasons"`
}
