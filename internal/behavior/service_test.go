package behavior

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
	"github.com/imadgeboyega/kiekky-scoring/internal/scorecache"
)

func newTestService(repo *memRepo) (Service, *scorecache.Cache[*TasteProfile]) {
	cache := scorecache.New[*TasteProfile]("taste")
	return NewService(repo, MustNewTasteBuilder(DefaultTasteConfig()), cache, logger.Nop()), cache
}

func TestGetTasteProfileBuildsOnFirstRead(t *testing.T) {
	repo := newMemRepo()
	repo.events = clusteredLikeEvents()
	svc, cache := newTestService(repo)

	tp, err := svc.GetTasteProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tp.UserID)
	assert.Equal(t, 20, tp.SampleCount)
	assert.Equal(t, 1, repo.saves)

	again, err := svc.GetTasteProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Same(t, tp, again)
	assert.Equal(t, int64(1), cache.Stats().Computations)
}

func TestGetTasteProfilePrefersStoredProfile(t *testing.T) {
	repo := newMemRepo()
	stored := NeutralTasteProfile(9)
	stored.SampleCount = 42
	repo.tastes[9] = stored
	svc, _ := newTestService(repo)

	tp, err := svc.GetTasteProfile(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 42, tp.SampleCount)
	assert.Equal(t, 0, repo.saves)
}

func TestRebuildTasteInvalidatesCache(t *testing.T) {
	repo := newMemRepo()
	repo.events = clusteredLikeEvents()[:3]
	svc, _ := newTestService(repo)

	before, err := svc.GetTasteProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, before.ConfidenceScore)

	repo.events = clusteredLikeEvents()
	_, err = svc.RefreshNow(context.Background(), 1)
	require.NoError(t, err)

	after, err := svc.GetTasteProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Greater(t, after.ConfidenceScore, 0.0)
	assert.Equal(t, 20, after.SampleCount)
}

func TestTrackingDrivesScheduledRebuild(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	sched := NewRebuildScheduler(svc, 5, 0, logger.Nop())
	tr := NewTracker(repo, sched)

	for i, ev := range clusteredLikeEvents() {
		_, err := tr.TrackView(context.Background(), 1, int64(100+i), ev.DwellMs, ev.Action, ev.Snapshot)
		require.NoError(t, err)
	}

	// 20 events at batch size 5 queue four rebuilds; none ran yet
	assert.Equal(t, 4, len(sched.ready))
	assert.Equal(t, 0, sched.Pending())
}
