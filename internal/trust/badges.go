package trust

import "sort"

const (
	vouchedMinVouches       = 3
	hostMinEvents           = 3
	safeDaterMinReviews     = 5
	safeDaterMinRating      = 4.0
	communicatorMinResponse = 0.9
	longTermMinDays         = 365
	stiTransparentMaxDays   = 90
)

type badgeRule struct {
	badge Badge
	earns func(s *ActivityStats) bool
}

func (e *Engine) badgeRules() []badgeRule {
	return []badgeRule{
		{BadgeCommunityVouched, func(s *ActivityStats) bool { return s.VouchesReceived >= vouchedMinVouches }},
		{BadgeEventHost, func(s *ActivityStats) bool { return s.EventsHosted >= hostMinEvents }},
		{BadgeSafeDater, func(s *ActivityStats) bool {
			return s.ReviewsReceived >= safeDaterMinReviews && s.AverageRating >= safeDaterMinRating
		}},
		{BadgeGreatCommunicator, func(s *ActivityStats) bool { return s.ResponseRate >= communicatorMinResponse }},
		{BadgeRespectful, func(s *ActivityStats) bool {
			return s.ReportsUpheld == 0 && s.DaysOnPlatform >= e.cfg.RespectfulMinDays
		}},
		{BadgeLongTermMember, func(s *ActivityStats) bool { return s.DaysOnPlatform >= longTermMinDays }},
		{BadgeVerified, func(s *ActivityStats) bool { return s.PhotoVerified && s.IDVerified }},
		{BadgeSTITransparent, func(s *ActivityStats) bool {
			return s.STIDisclosures > 0 && s.DaysSinceSTIDisclosure >= 0 && s.DaysSinceSTIDisclosure <= stiTransparentMaxDays
		}},
	}
}

// earnedBadges evaluates every rule against s.
func (e *Engine) earnedBadges(s *ActivityStats) []Badge {
	out := []Badge{}
	for _, r := range e.badgeRules() {
		if r.earns(s) {
			out = append(out, r.badge)
		}
	}
	return out
}

// unionBadges merges badge lists into a sorted set.
func unionBadges(lists ...[]Badge) []Badge {
	set := make(map[Badge]struct{})
	for _, l := range lists {
		for _, b := range l {
			if b != "" {
				set[b] = struct{}{}
			}
		}
	}
	out := make([]Badge, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewBadges returns the badges in score that are missing from earned.
func NewBadges(score *TrustScore, earned []Badge) []Badge {
	have := make(map[Badge]struct{}, len(earned))
	for _, b := range earned {
		have[b] = struct{}{}
	}
	out := []Badge{}
	for _, b := range score.Badges {
		if _, ok := have[b]; !ok {
			out = append(out, b)
		}
	}
	return out
}
