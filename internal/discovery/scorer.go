package discovery

import (
	"context"
	"strconv"
	"sync"

	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
	"github.com/imadgeboyega/kiekky-scoring/internal/scorecache"
)

// CachedScorer memoizes compatibility breakdowns. Scores are symmetric, so a
// pair shares one entry regardless of who is viewing.
type CachedScorer struct {
	scorer *matching.Scorer
	cache  *scorecache.Cache[*matching.Breakdown]

	// byUser and pairs index cached fingerprints for InvalidateUser.
	mu     sync.Mutex
	byUser map[int64]map[string]struct{}
	pairs  map[string][2]int64
}

func NewCachedScorer(scorer *matching.Scorer, cache *scorecache.Cache[*matching.Breakdown]) *CachedScorer {
	return &CachedScorer{
		scorer: scorer,
		cache:  cache,
		byUser: make(map[int64]map[string]struct{}),
		pairs:  make(map[string][2]int64),
	}
}

// PairFingerprint keys a pair by both ids in ascending order and each
// profile's last modification.
func PairFingerprint(a, b *matching.Profile) string {
	if b.ID < a.ID {
		a, b = b, a
	}
	return scorecache.Fingerprint(
		"compat",
		strconv.FormatInt(a.ID, 10), strconv.FormatInt(a.UpdatedAt.UnixNano(), 10),
		strconv.FormatInt(b.ID, 10), strconv.FormatInt(b.UpdatedAt.UnixNano(), 10),
	)
}

func (c *CachedScorer) Explain(ctx context.Context, viewer, candidate *matching.Profile) (*matching.Breakdown, error) {
	if viewer == nil || candidate == nil {
		return c.scorer.Explain(viewer, candidate), nil
	}

	lo, hi := viewer, candidate
	if hi.ID < lo.ID {
		lo, hi = hi, lo
	}
	fp := PairFingerprint(lo, hi)
	c.track(fp, lo.ID, hi.ID)

	return c.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (*matching.Breakdown, error) {
		b := c.scorer.Explain(lo, hi)
		matching.RecordCompatibilityScore(b.Total)
		return b, nil
	})
}

// Bind returns a Scorer whose lookups run under ctx.
func (c *CachedScorer) Bind(ctx context.Context) Scorer {
	return boundScorer{ctx: ctx, c: c}
}

// InvalidateUser drops every cached pair involving userID.
func (c *CachedScorer) InvalidateUser(ctx context.Context, userID int64) error {
	c.mu.Lock()
	fps := c.byUser[userID]
	delete(c.byUser, userID)
	for fp := range fps {
		for _, id := range c.pairs[fp] {
			if id == userID {
				continue
			}
			if set, ok := c.byUser[id]; ok {
				delete(set, fp)
				if len(set) == 0 {
					delete(c.byUser, id)
				}
			}
		}
		delete(c.pairs, fp)
	}
	c.mu.Unlock()

	var firstErr error
	for fp := range fps {
		if err := c.cache.Invalidate(ctx, fp); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *CachedScorer) track(fp string, lo, hi int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairs[fp] = [2]int64{lo, hi}
	for _, id := range []int64{lo, hi} {
		set, ok := c.byUser[id]
		if !ok {
			set = make(map[string]struct{})
			c.byUser[id] = set
		}
		set[fp] = struct{}{}
	}
}

type boundScorer struct {
	ctx context.Context
	c   *CachedScorer
}

// Score falls back to a direct computation if the cache tier errors; the
// scorer itself cannot fail.
func (b boundScorer) Score(viewer, candidate *matching.Profile) float64 {
	bd, err := b.c.Explain(b.ctx, viewer, candidate)
	if err != nil {
		return b.c.scorer.Score(viewer, candidate)
	}
	return bd.Total
}
