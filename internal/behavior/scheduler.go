package behavior

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
)

const (
	TriggerBatch  = "batch"
	TriggerWindow = "window"
	TriggerManual = "manual"
	TriggerRead   = "read"
)

// Rebuilder rebuilds and persists one user's taste profile.
type Rebuilder interface {
	RebuildTaste(ctx context.Context, userID int64, trigger string) (*TasteProfile, error)
}

// RebuildScheduler batches rebuild requests: a user is rebuilt once every
// batchSize new events, and anything still pending is flushed every window.
type RebuildScheduler struct {
	rebuilder Rebuilder
	batchSize int
	window    time.Duration
	log       *logger.Logger

	mu      sync.Mutex
	pending map[int64]int
	ready   chan int64
}

func NewRebuildScheduler(rebuilder Rebuilder, batchSize int, window time.Duration, log *logger.Logger) *RebuildScheduler {
	if batchSize < 1 {
		batchSize = 1
	}
	return &RebuildScheduler{
		rebuilder: rebuilder,
		batchSize: batchSize,
		window:    window,
		log:       log.With("service", "RebuildScheduler"),
		pending:   make(map[int64]int),
		ready:     make(chan int64, 256),
	}
}

// Notify records one new event for userID. It never blocks.
func (s *RebuildScheduler) Notify(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[userID]++
	if s.pending[userID] < s.batchSize {
		return
	}

	select {
	case s.ready <- userID:
		delete(s.pending, userID)
	default:
		// queue full, the window flush will pick it up
	}
}

// Pending returns how many users are waiting for a rebuild.
func (s *RebuildScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *RebuildScheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *RebuildScheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.window)
	defer ticker.Stop()

	for {
		select {
		case userID := <-s.ready:
			s.rebuild(ctx, userID, TriggerBatch)
		case <-ticker.C:
			s.Flush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Flush rebuilds every pending user now, including users that reached
// their batch size but were not picked up by the run loop yet.
func (s *RebuildScheduler) Flush(ctx context.Context) {
	queued := s.drainReady()

	s.mu.Lock()
	users := make([]int64, 0, len(s.pending))
	for id := range s.pending {
		if _, ok := queued[id]; !ok {
			users = append(users, id)
		}
	}
	s.pending = make(map[int64]int)
	s.mu.Unlock()

	batch := make([]int64, 0, len(queued))
	for id := range queued {
		batch = append(batch, id)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i] < batch[j] })
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	for _, id := range batch {
		if ctx.Err() != nil {
			return
		}
		s.rebuild(ctx, id, TriggerBatch)
	}
	for _, id := range users {
		if ctx.Err() != nil {
			return
		}
		s.rebuild(ctx, id, TriggerWindow)
	}
}

func (s *RebuildScheduler) drainReady() map[int64]struct{} {
	queued := make(map[int64]struct{})
	for {
		select {
		case id := <-s.ready:
			queued[id] = struct{}{}
		default:
			return queued
		}
	}
}

func (s *RebuildScheduler) rebuild(ctx context.Context, userID int64, trigger string) {
	if _, err := s.rebuilder.RebuildTaste(ctx, userID, trigger); err != nil {
		s.log.Error("Scheduled taste rebuild failed", "user_id", userID, "trigger", trigger, "error", err)
	}
}
