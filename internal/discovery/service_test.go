package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imadgeboyega/kiekky-scoring/internal/auth"
	"github.com/imadgeboyega/kiekky-scoring/internal/behavior"
	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
	"github.com/imadgeboyega/kiekky-scoring/internal/scorecache"
)

type memRepo struct {
	profiles map[int64]*matching.Profile
	seen     map[int64]map[int64]struct{}
	excluded []int64
}

func (m *memRepo) GetProfile(_ context.Context, userID int64) (*matching.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (m *memRepo) ListCandidates(_ context.Context, viewerID int64, exclude []int64, limit int) ([]*matching.Profile, error) {
	m.excluded = exclude
	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	out := []*matching.Profile{}
	for id := int64(1); id <= 100 && len(out) < limit; id++ {
		if p, ok := m.profiles[id]; ok && id != viewerID && !skip[id] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) SeenProfileIDs(_ context.Context, viewerID int64) (map[int64]struct{}, error) {
	if s, ok := m.seen[viewerID]; ok {
		return s, nil
	}
	return map[int64]struct{}{}, nil
}

type stubTaste struct {
	profile *behavior.TasteProfile
	err     error
}

func (s stubTaste) GetTasteProfile(context.Context, int64) (*behavior.TasteProfile, error) {
	return s.profile, s.err
}

var updated = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func testRepo() *memRepo {
	return &memRepo{
		profiles: map[int64]*matching.Profile{
			1: {ID: 1, Age: 30, City: "Austin", IntentIDs: []string{"poly", "dating"}, PacePreference: matching.PaceSlow, UpdatedAt: updated},
			2: {ID: 2, Age: 31, City: "Austin", IntentIDs: []string{"poly", "dating"}, PacePreference: matching.PaceSlow, UpdatedAt: updated},
			3: {ID: 3, Age: 48, City: "Denver", IntentIDs: []string{"casual"}, PacePreference: matching.PaceFast, UpdatedAt: updated},
			4: {ID: 4, Age: 33, City: "Austin", IntentIDs: []string{"poly"}, PacePreference: matching.PaceMedium, UpdatedAt: updated},
			5: {ID: 5, Age: 29, UpdatedAt: updated},
		},
		seen: map[int64]map[int64]struct{}{1: {4: {}}},
	}
}

func newTestService(repo Repository, taste TasteSource) (Service, *scorecache.Cache[*matching.Breakdown]) {
	cache := scorecache.New[*matching.Breakdown]("compatibility")
	scorer := NewCachedScorer(matching.MustNewScorer(matching.DefaultConfig()), cache)
	cfg := Config{Ranker: DefaultRankerConfig(), CandidateLimit: 50, FeedLimit: 10}
	return NewService(repo, scorer, taste, cfg, logger.Nop()), cache
}

func TestGetFeedExcludesSeenAndSelf(t *testing.T) {
	svc, _ := newTestService(testRepo(), nil)

	feed, err := svc.GetFeed(context.Background(), 1, FeedOptions{Personalize: true})
	require.NoError(t, err)

	got := make([]int64, len(feed.Candidates))
	for i, c := range feed.Candidates {
		got[i] = c.Profile.ID
	}
	assert.Equal(t, []int64{2, 5, 3}, got)
	assert.False(t, feed.Personalized)
}

func TestGetFeedSkipsSeenBeforeCandidateLimit(t *testing.T) {
	repo := testRepo()
	repo.seen[1] = map[int64]struct{}{3: {}, 2: {}}
	cache := scorecache.New[*matching.Breakdown]("compatibility")
	scorer := NewCachedScorer(matching.MustNewScorer(matching.DefaultConfig()), cache)
	cfg := Config{Ranker: DefaultRankerConfig(), CandidateLimit: 2, FeedLimit: 10}
	svc := NewService(repo, scorer, nil, cfg, logger.Nop())

	feed, err := svc.GetFeed(context.Background(), 1, FeedOptions{})
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 3}, repo.excluded)
	got := make([]int64, len(feed.Candidates))
	for i, c := range feed.Candidates {
		got[i] = c.Profile.ID
	}
	assert.ElementsMatch(t, []int64{4, 5}, got)
}

func TestGetFeedUsesConfidentTaste(t *testing.T) {
	tp := behavior.NeutralTasteProfile(1)
	tp.ConfidenceScore = 0.8
	svc, _ := newTestService(testRepo(), stubTaste{profile: tp})

	feed, err := svc.GetFeed(context.Background(), 1, FeedOptions{Personalize: true, Limit: 2})
	require.NoError(t, err)
	assert.True(t, feed.Personalized)
	assert.Equal(t, 0.8, feed.TasteConfidence)
	assert.Len(t, feed.Candidates, 2)

	plain, err := svc.GetFeed(context.Background(), 1, FeedOptions{Personalize: false})
	require.NoError(t, err)
	assert.False(t, plain.Personalized)
}

func TestGetFeedSurvivesTasteFailure(t *testing.T) {
	svc, _ := newTestService(testRepo(), stubTaste{err: errors.New("redis down")})

	feed, err := svc.GetFeed(context.Background(), 1, FeedOptions{Personalize: true})
	require.NoError(t, err)
	assert.False(t, feed.Personalized)
	assert.NotEmpty(t, feed.Candidates)
}

func TestGetFeedUnknownViewer(t *testing.T) {
	svc, _ := newTestService(testRepo(), nil)
	_, err := svc.GetFeed(context.Background(), 42, FeedOptions{})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCompatibilityIsSymmetricAndCached(t *testing.T) {
	svc, cache := newTestService(testRepo(), nil)
	ctx := context.Background()

	ab, err := svc.GetCompatibility(ctx, 1, 2)
	require.NoError(t, err)
	ba, err := svc.GetCompatibility(ctx, 2, 1)
	require.NoError(t, err)

	assert.Same(t, ab, ba)
	assert.GreaterOrEqual(t, ab.Total, 75.0)
	assert.Equal(t, int64(1), cache.Stats().Computations)
}

func TestInvalidateProfileDropsPairs(t *testing.T) {
	repo := testRepo()
	svc, cache := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.GetFeed(ctx, 1, FeedOptions{})
	require.NoError(t, err)
	before := cache.Stats().Size
	require.Equal(t, 3, before)

	require.NoError(t, svc.InvalidateProfile(ctx, 2))
	assert.Equal(t, before-1, cache.Stats().Size)

	require.NoError(t, svc.InvalidateProfile(ctx, 1))
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestInvalidateUserPrunesPartnerIndex(t *testing.T) {
	repo := testRepo()
	cache := scorecache.New[*matching.Breakdown]("compatibility")
	scorer := NewCachedScorer(matching.MustNewScorer(matching.DefaultConfig()), cache)
	ctx := context.Background()

	for _, id := range []int64{2, 3, 5} {
		_, err := scorer.Explain(ctx, repo.profiles[1], repo.profiles[id])
		require.NoError(t, err)
	}
	_, err := scorer.Explain(ctx, repo.profiles[2], repo.profiles[3])
	require.NoError(t, err)
	require.Len(t, scorer.pairs, 4)

	require.NoError(t, scorer.InvalidateUser(ctx, 1))

	assert.Len(t, scorer.pairs, 1)
	assert.NotContains(t, scorer.byUser, int64(1))
	assert.NotContains(t, scorer.byUser, int64(5), "partner with no other pairs is dropped")
	assert.Len(t, scorer.byUser[2], 1)
	assert.Len(t, scorer.byUser[3], 1)
	assert.Equal(t, 1, cache.Stats().Size)

	require.NoError(t, scorer.InvalidateUser(ctx, 3))
	assert.Empty(t, scorer.pairs)
	assert.Empty(t, scorer.byUser)
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestEditedProfileGetsFreshScore(t *testing.T) {
	repo := testRepo()
	svc, _ := newTestService(repo, nil)
	ctx := context.Background()

	before, err := svc.GetCompatibility(ctx, 1, 3)
	require.NoError(t, err)

	edited := *repo.profiles[3]
	edited.IntentIDs = []string{"poly", "dating"}
	edited.UpdatedAt = updated.Add(time.Hour)
	repo.profiles[3] = &edited

	after, err := svc.GetCompatibility(ctx, 1, 3)
	require.NoError(t, err)
	assert.Greater(t, after.Total, before.Total)
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestDiscoveryHandlers(t *testing.T) {
	svc, _ := newTestService(testRepo(), nil)
	h := NewHandler(svc, logger.Nop())

	router := mux.NewRouter()
	RegisterRoutes(router, h, auth.NewMiddleware("test-secret"))

	member := signToken(t, "1", "")
	service := signToken(t, "99", auth.RoleService)
	serve := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		method string
		path   string
		token  string
		code   int
	}{
		{http.MethodGet, "/api/v1/discovery/feed?limit=2&personalize=false", member, http.StatusOK},
		{http.MethodGet, "/api/v1/discovery/feed?limit=zero", member, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/discovery/feed?personalize=maybe", member, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/discovery/feed", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/discovery/compatibility/2", member, http.StatusOK},
		{http.MethodGet, "/api/v1/discovery/compatibility/77", member, http.StatusNotFound},
		{http.MethodPost, "/api/v1/discovery/profiles/2/invalidate", member, http.StatusForbidden},
		{http.MethodPost, "/api/v1/discovery/profiles/2/invalidate", service, http.StatusOK},
	}
	for _, tt := range tests {
		rec := serve(tt.method, tt.path, tt.token)
		assert.Equal(t, tt.code, rec.Code, "%s %s", tt.method, tt.path)
	}

	rec := serve(http.MethodGet, "/api/v1/discovery/feed?limit=2", member)
	var body struct {
		Data Feed `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data.Candidates, 2)
	assert.Equal(t, int64(2), body.Data.Candidates[0].Profile.ID)
}
