// internal/trust/models.go

package trust

import "time"

// ActivityStats are lifetime counters aggregated by the platform. The
// engine only reads them.
type ActivityStats struct {
	UserID                 int64     `json:"user_id" db:"user_id"`
	DatesCompleted         int       `json:"dates_completed" db:"dates_completed"`
	DatesCancelled         int       `json:"dates_cancelled" db:"dates_cancelled"`
	NoShows                int       `json:"no_shows" db:"no_shows"`
	EventsAttended         int       `json:"events_attended" db:"events_attended"`
	EventsHosted           int       `json:"events_hosted" db:"events_hosted"`
	VouchesReceived        int       `json:"vouches_received" db:"vouches_received"`
	ReviewsReceived        int       `json:"reviews_received" db:"reviews_received"`
	AverageRating          float64   `json:"average_rating" db:"average_rating"`
	ReportsReceived        int       `json:"reports_received" db:"reports_received"`
	ReportsUpheld          int       `json:"reports_upheld" db:"reports_upheld"`
	PhotoVerified          bool      `json:"photo_verified" db:"photo_verified"`
	IDVerified             bool      `json:"id_verified" db:"id_verified"`
	STIDisclosures         int       `json:"sti_disclosures" db:"sti_disclosures"`
	DaysSinceSTIDisclosure int       `json:"days_since_sti_disclosure" db:"days_since_sti_disclosure"` // -1 = never
	ProfileCompleteness    float64   `json:"profile_completeness" db:"profile_completeness"`           // 0..1
	ResponseRate           float64   `json:"response_rate" db:"response_rate"`                         // 0..1
	ActiveDaysLast30       int       `json:"active_days_last_30" db:"active_days_last_30"`
	DaysOnPlatform         int       `json:"days_on_platform" db:"days_on_platform"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// Dimension is one axis of the trust score.
type Dimension string

const (
	DimensionBehavior     Dimension = "behavior"
	DimensionCommunity    Dimension = "community"
	DimensionReliability  Dimension = "reliability"
	DimensionSafety       Dimension = "safety"
	DimensionEngagement   Dimension = "engagement"
	DimensionTransparency Dimension = "transparency"
)

// DimensionScore is a single dimension's contribution.
type DimensionScore struct {
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// Badge is an achievement unlocked by crossing a stats threshold.
type Badge string

const (
	BadgeCommunityVouched  Badge = "community_vouched"
	BadgeEventHost         Badge = "event_host"
	BadgeSafeDater         Badge = "safe_dater"
	BadgeGreatCommunicator Badge = "great_communicator"
	BadgeRespectful        Badge = "respectful"
	BadgeLongTermMember    Badge = "long_term_member"
	BadgeVerified          Badge = "verified"
	BadgeSTITransparent    Badge = "sti_transparent"
)

// TrustScore is the derived reputation of one user.
type TrustScore struct {
	UserID       int64                        `json:"user_id"`
	OverallScore float64                      `json:"overall_score"`
	Tier         Tier                         `json:"tier"`
	Badges       []Badge                      `json:"badges"`
	Dimensions   map[Dimension]DimensionScore `json:"dimensions"`
	Stats        ActivityStats                `json:"stats"`
}

// PublicTrustScore is what other members may see: the score and how it
// breaks down, without the raw activity stats behind it.
type PublicTrustScore struct {
	UserID       int64                        `json:"user_id"`
	OverallScore float64                      `json:"overall_score"`
	Tier         Tier                         `json:"tier"`
	Badges       []Badge                      `json:"badges"`
	Dimensions   map[Dimension]DimensionScore `json:"dimensions"`
}

func (s *TrustScore) Public() *PublicTrustScore {
	return &PublicTrustScore{
		UserID:       s.UserID,
		OverallScore: s.OverallScore,
		Tier:         s.Tier,
		Badges:       s.Badges,
		Dimensions:   s.Dimensions,
	}
}

// HasBadge reports whether b is in the badge set.
func (s *TrustScore) HasBadge(b Badge) bool {
	for _, have := range s.Badges {
		if have == b {
			return true
		}
	}
	return false
}
