package behavior

import (
	"context"
	"sync"
)

type memRepo struct {
	mu        sync.Mutex
	events    []ViewEvent
	tastes    map[int64]*TasteProfile
	saves     int
	appendErr error
}

func newMemRepo() *memRepo {
	return &memRepo{tastes: make(map[int64]*TasteProfile)}
}

func (m *memRepo) AppendEvent(_ context.Context, event *ViewEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *memRepo) GetEvents(_ context.Context, userID int64) ([]ViewEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []ViewEvent{}
	for _, e := range m.events {
		if e.SubjectUserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) GetTasteProfile(_ context.Context, userID int64) (*TasteProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tp, ok := m.tastes[userID]
	if !ok {
		return nil, ErrTasteNotFound
	}
	return tp, nil
}

func (m *memRepo) SaveTasteProfile(_ context.Context, profile *TasteProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.tastes[profile.UserID] = profile
	return nil
}

type recordingRebuilder struct {
	mu    sync.Mutex
	calls []string
	users []int64
}

func (r *recordingRebuilder) RebuildTaste(_ context.Context, userID int64, trigger string) (*TasteProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, trigger)
	r.users = append(r.users, userID)
	return NeutralTasteProfile(userID), nil
}

func (r *recordingRebuilder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type countingObserver struct {
	mu    sync.Mutex
	users []int64
}

func (c *countingObserver) Notify(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
}
