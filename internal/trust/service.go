// internal/trust/service.go

package trust

import (
	"context"
	"fmt"
	"strconv"

	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
	"github.com/imadgeboyega/kiekky-scoring/internal/scorecache"
)

type Service interface {
	GetTrustScore(ctx context.Context, userID int64) (*TrustScore, error)
	// InvalidateTrust must be called whenever the user's stats change.
	InvalidateTrust(ctx context.Context, userID int64) error
}

type service struct {
	repo   Repository
	engine *Engine
	cache  *scorecache.Cache[*TrustScore]
	log    *logger.Logger
}

func NewService(repo Repository, engine *Engine, cache *scorecache.Cache[*TrustScore], log *logger.Logger) Service {
	return &service{
		repo:   repo,
		engine: engine,
		cache:  cache,
		log:    log.With("service", "TrustService"),
	}
}

// TrustFingerprint is the cache key of a user's trust score.
func TrustFingerprint(userID int64) string {
	return scorecache.Fingerprint("trust", strconv.FormatInt(userID, 10))
}

func (s *service) GetTrustScore(ctx context.Context, userID int64) (*TrustScore, error) {
	return s.cache.GetOrCompute(ctx, TrustFingerprint(userID), func(ctx context.Context) (*TrustScore, error) {
		return s.compute(ctx, userID)
	})
}

func (s *service) InvalidateTrust(ctx context.Context, userID int64) error {
	return s.cache.Invalidate(ctx, TrustFingerprint(userID))
}

func (s *service) compute(ctx context.Context, userID int64) (*TrustScore, error) {
	stats, err := s.repo.GetActivityStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load activity stats: %w", err)
	}

	earned, err := s.repo.GetBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load badges: %w", err)
	}

	score := s.engine.ComputeWithHistory(*stats, earned)
	score.UserID = userID

	fresh := NewBadges(score, earned)
	if err := s.repo.AddBadges(ctx, userID, fresh); err != nil {
		return nil, fmt.Errorf("record badges: %w", err)
	}
	for _, b := range fresh {
		badgesAwarded.WithLabelValues(string(b)).Inc()
	}
	if len(fresh) > 0 {
		s.log.Info("Badges awarded", "user_id", userID, "badges", fresh)
	}

	trustComputations.WithLabelValues(string(score.Tier)).Inc()
	trustOverallScore.Observe(score.OverallScore)
	return score, nil
}
