// internal/discovery/service.go

package discovery

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/imadgeboyega/kiekky-scoring/internal/behavior"
	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
)

// TasteSource supplies a viewer's taste profile.
type TasteSource interface {
	GetTasteProfile(ctx context.Context, userID int64) (*behavior.TasteProfile, error)
}

type FeedOptions struct {
	Limit       int
	Personalize bool
}

type Feed struct {
	ViewerID        int64             `json:"viewer_id"`
	Personalized    bool              `json:"personalized"`
	TasteConfidence float64           `json:"taste_confidence"`
	Candidates      []ScoredCandidate `json:"candidates"`
}

type Service interface {
	GetFeed(ctx context.Context, viewerID int64, opts FeedOptions) (*Feed, error)
	GetCompatibility(ctx context.Context, viewerID, candidateID int64) (*matching.Breakdown, error)
	// InvalidateProfile must be called when a profile is edited.
	InvalidateProfile(ctx context.Context, userID int64) error
}

type Config struct {
	Ranker         RankerConfig
	CandidateLimit int
	FeedLimit      int
}

type service struct {
	repo   Repository
	scorer *CachedScorer
	taste  TasteSource
	cfg    Config
	log    *logger.Logger
}

func NewService(repo Repository, scorer *CachedScorer, taste TasteSource, cfg Config, log *logger.Logger) Service {
	if cfg.CandidateLimit < 1 {
		cfg.CandidateLimit = 200
	}
	if cfg.FeedLimit < 1 {
		cfg.FeedLimit = 30
	}
	return &service{
		repo:   repo,
		scorer: scorer,
		taste:  taste,
		cfg:    cfg,
		log:    log.With("service", "DiscoveryService"),
	}
}

func (s *service) GetFeed(ctx context.Context, viewerID int64, opts FeedOptions) (*Feed, error) {
	viewer, err := s.repo.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load viewer: %w", err)
	}

	seen, err := s.repo.SeenProfileIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load seen profiles: %w", err)
	}

	// Seen profiles are excluded in the query so they never use up the
	// candidate limit. The ranker filters them again.
	candidates, err := s.repo.ListCandidates(ctx, viewerID, sortedIDs(seen), s.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	var taste *behavior.TasteProfile
	if opts.Personalize && s.taste != nil {
		taste, err = s.taste.GetTasteProfile(ctx, viewerID)
		if err != nil {
			// A feed without personalization beats no feed
			s.log.Warn("Taste profile unavailable, ranking without it", "user_id", viewerID, "error", err)
			taste = nil
		}
	}

	limit := opts.Limit
	if limit < 1 || limit > s.cfg.FeedLimit {
		limit = s.cfg.FeedLimit
	}

	start := time.Now()
	ranker := NewRanker(s.scorer.Bind(ctx), s.cfg.Ranker)
	rankOpts := RankOptions{Personalize: opts.Personalize, Limit: limit}
	ranked := ranker.RankScored(candidates, viewer, taste, seen, rankOpts)
	rankingDuration.Observe(time.Since(start).Seconds())

	feed := &Feed{
		ViewerID:     viewerID,
		Personalized: ranker.Personalizes(taste, rankOpts),
		Candidates:   ranked,
	}
	if taste != nil {
		feed.TasteConfidence = taste.ConfidenceScore
	}
	feedsServed.WithLabelValues(strconv.FormatBool(feed.Personalized)).Inc()

	return feed, nil
}

func (s *service) GetCompatibility(ctx context.Context, viewerID, candidateID int64) (*matching.Breakdown, error) {
	viewer, err := s.repo.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load viewer: %w", err)
	}
	candidate, err := s.repo.GetProfile(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}
	return s.scorer.Explain(ctx, viewer, candidate)
}

func (s *service) InvalidateProfile(ctx context.Context, userID int64) error {
	if err := s.scorer.InvalidateUser(ctx, userID); err != nil {
		return fmt.Errorf("invalidate compatibility scores: %w", err)
	}
	s.log.Debug("Invalidated compatibility scores", "user_id", userID)
	return nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
