// internal/behavior/service.go

package behavior

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
	"github.com/imadgeboyega/kiekky-scoring/internal/scorecache"
)

type Service interface {
	GetTasteProfile(ctx context.Context, userID int64) (*TasteProfile, error)
	RebuildTaste(ctx context.Context, userID int64, trigger string) (*TasteProfile, error)
	RefreshNow(ctx context.Context, userID int64) (*TasteProfile, error)
}

type service struct {
	repo    Repository
	builder *TasteBuilder
	cache   *scorecache.Cache[*TasteProfile]
	log     *logger.Logger
}

func NewService(repo Repository, builder *TasteBuilder, cache *scorecache.Cache[*TasteProfile], log *logger.Logger) Service {
	return &service{
		repo:    repo,
		builder: builder,
		cache:   cache,
		log:     log.With("service", "TasteService"),
	}
}

// TasteFingerprint is the cache key of a user's taste profile.
func TasteFingerprint(userID int64) string {
	return scorecache.Fingerprint("taste", strconv.FormatInt(userID, 10))
}

// GetTasteProfile serves the cached profile, falling back to the stored one
// and finally to a rebuild for users who were never rebuilt.
func (s *service) GetTasteProfile(ctx context.Context, userID int64) (*TasteProfile, error) {
	return s.cache.GetOrCompute(ctx, TasteFingerprint(userID), func(ctx context.Context) (*TasteProfile, error) {
		profile, err := s.repo.GetTasteProfile(ctx, userID)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, ErrTasteNotFound) {
			return nil, fmt.Errorf("load taste profile: %w", err)
		}
		return s.build(ctx, userID, TriggerRead)
	})
}

// RebuildTaste recomputes the profile from the full event log, stores it and
// drops the cached copy.
func (s *service) RebuildTaste(ctx context.Context, userID int64, trigger string) (*TasteProfile, error) {
	profile, err := s.build(ctx, userID, trigger)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, TasteFingerprint(userID)); err != nil {
		s.log.Warn("Failed to invalidate taste cache", "user_id", userID, "error", err)
	}
	return profile, nil
}

func (s *service) RefreshNow(ctx context.Context, userID int64) (*TasteProfile, error) {
	return s.RebuildTaste(ctx, userID, TriggerManual)
}

func (s *service) build(ctx context.Context, userID int64, trigger string) (*TasteProfile, error) {
	events, err := s.repo.GetEvents(ctx, userID)
	if err != nil {
		tasteRebuildErrors.Inc()
		return nil, fmt.Errorf("load view events: %w", err)
	}

	profile := s.builder.Rebuild(events)
	profile.UserID = userID

	if err := s.repo.SaveTasteProfile(ctx, profile); err != nil {
		tasteRebuildErrors.Inc()
		return nil, fmt.Errorf("save taste profile: %w", err)
	}

	tasteRebuilds.WithLabelValues(trigger).Inc()
	tasteConfidence.Observe(profile.ConfidenceScore)
	s.log.Debug("Rebuilt taste profile",
		"user_id", userID,
		"trigger", trigger,
		"samples", profile.SampleCount,
		"confidence", profile.ConfidenceScore,
	)
	return profile, nil
}
