// Package scorecache memoizes score computations by fingerprint.
//
// A fingerprint always maps to the same value until it is invalidated, and
// at most one computation per fingerprint is in flight at a time. Entries
// never expire on their own; callers invalidate when an input changes.
package scorecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
)

// Entry is a memoized value and when it was produced.
type Entry[V any] struct {
	Fingerprint string    `json:"fingerprint"`
	Value       V         `json:"value"`
	ComputedAt  time.Time `json:"computed_at"`
}

// ComputeFunc produces the value for a fingerprint on a miss.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Size         int   `json:"size"`
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Computations int64 `json:"computations"`
	Errors       int64 `json:"errors"`
}

type options struct {
	store Store
	bus   Bus
	now   func() time.Time
	log   *logger.Logger
}

type Option func(*options)

// WithStore adds a shared second tier consulted before computing.
func WithStore(store Store) Option {
	return func(o *options) { o.store = store }
}

// WithBus fans invalidations out to other instances sharing the store.
func WithBus(bus Bus) Option {
	return func(o *options) { o.bus = bus }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// Cache is safe for concurrent use. Create one per value type and inject it;
// there is no package-level instance.
type Cache[V any] struct {
	name   string
	origin string
	opts   options

	mu      sync.RWMutex
	entries map[string]Entry[V]
	gens    map[string]uint64
	epoch   uint64

	group singleflight.Group

	hits         atomic.Int64
	misses       atomic.Int64
	computations atomic.Int64
	errors       atomic.Int64
}

func New[V any](name string, opts ...Option) *Cache[V] {
	o := options{now: time.Now, log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		name:    name,
		origin:  uuid.NewString(),
		opts:    o,
		entries: make(map[string]Entry[V]),
		gens:    make(map[string]uint64),
	}
}

func (c *Cache[V]) Name() string { return c.name }

// GetOrCompute returns the value for fp, running compute on a miss.
// Concurrent callers for the same fingerprint share one computation. A
// failed computation is returned to every waiter and nothing is stored.
func (c *Cache[V]) GetOrCompute(ctx context.Context, fp string, compute ComputeFunc[V]) (V, error) {
	if e, ok := c.lookup(fp); ok {
		c.recordHit()
		return e.Value, nil
	}

	c.mu.RLock()
	key := c.flightKey(fp)
	c.mu.RUnlock()

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		if e, ok := c.lookup(fp); ok {
			c.recordHit()
			return e.Value, nil
		}

		c.mu.RLock()
		epoch, gen := c.epoch, c.gens[fp]
		c.mu.RUnlock()

		// The shared version is read before anything the computation reads.
		version, versioned := c.storeVersion(ctx, fp)

		if v, ok := c.loadFromStore(ctx, fp); ok {
			c.recordHit()
			c.storeLocal(fp, v, epoch, gen)
			return v, nil
		}

		c.misses.Add(1)
		c.computations.Add(1)
		cacheRequests.WithLabelValues(c.name, "miss").Inc()

		v, err := compute(ctx)
		if err != nil {
			c.errors.Add(1)
			cacheComputeErrors.WithLabelValues(c.name).Inc()
			return nil, err
		}

		// Callers already waiting get v either way; it is only kept if no
		// invalidation, local or remote, happened while it was computed.
		if c.current(fp, epoch, gen) && c.saveToStore(ctx, fp, v, version, versioned) {
			c.storeLocal(fp, v, epoch, gen)
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	v, _ := res.(V)
	return v, nil
}

// Peek returns the local entry for fp without computing.
func (c *Cache[V]) Peek(fp string) (Entry[V], bool) {
	return c.lookup(fp)
}

// Invalidate drops fp locally and in the shared tier. Later calls to
// GetOrCompute recompute even if an older computation is still running.
func (c *Cache[V]) Invalidate(ctx context.Context, fp string) error {
	c.invalidateLocal(fp)
	cacheInvalidations.WithLabelValues(c.name, "key").Inc()

	var errs []string
	if c.opts.store != nil {
		if err := c.opts.store.Invalidate(ctx, c.name, fp); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.opts.bus != nil {
		msg := Invalidation{Cache: c.name, Fingerprint: fp, Origin: c.origin}
		if err := c.opts.bus.Publish(ctx, msg); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalidate %s/%s: %s", c.name, fp, strings.Join(errs, "; "))
	}
	return nil
}

// InvalidateAll drops every entry of this cache.
func (c *Cache[V]) InvalidateAll(ctx context.Context) error {
	c.invalidateAllLocal()
	cacheInvalidations.WithLabelValues(c.name, "all").Inc()

	var errs []string
	if c.opts.store != nil {
		if err := c.opts.store.InvalidateAll(ctx, c.name); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.opts.bus != nil {
		msg := Invalidation{Cache: c.name, All: true, Origin: c.origin}
		if err := c.opts.bus.Publish(ctx, msg); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalidate all %s: %s", c.name, strings.Join(errs, "; "))
	}
	return nil
}

// ListenForInvalidations evicts local entries when another instance
// invalidates. It returns once the subscription is established.
func (c *Cache[V]) ListenForInvalidations(ctx context.Context) error {
	if c.opts.bus == nil {
		return nil
	}
	return c.opts.bus.Subscribe(ctx, func(msg Invalidation) {
		if msg.Cache != c.name || msg.Origin == c.origin {
			return
		}
		if msg.All {
			c.invalidateAllLocal()
			return
		}
		c.invalidateLocal(msg.Fingerprint)
	})
}

func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Size:         size,
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Computations: c.computations.Load(),
		Errors:       c.errors.Load(),
	}
}

func (c *Cache[V]) lookup(fp string) (Entry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[fp]
	return e, ok
}

func (c *Cache[V]) recordHit() {
	c.hits.Add(1)
	cacheRequests.WithLabelValues(c.name, "hit").Inc()
}

// flightKey changes whenever fp is invalidated so callers arriving after an
// invalidation never join a computation that started before it.
// Caller holds c.mu.
func (c *Cache[V]) flightKey(fp string) string {
	return fmt.Sprintf("%s@%d.%d", fp, c.epoch, c.gens[fp])
}

// storeLocal keeps v only if fp was not invalidated since epoch/gen were read.
func (c *Cache[V]) storeLocal(fp string, v V, epoch, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.gens[fp] != gen {
		return false
	}
	c.entries[fp] = Entry[V]{Fingerprint: fp, Value: v, ComputedAt: c.opts.now()}
	return true
}

func (c *Cache[V]) current(fp string, epoch, gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch == epoch && c.gens[fp] == gen
}

func (c *Cache[V]) invalidateLocal(fp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fp)
	c.gens[fp]++
}

func (c *Cache[V]) invalidateAllLocal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry[V])
	c.gens = make(map[string]uint64)
	c.epoch++
}

func (c *Cache[V]) storeVersion(ctx context.Context, fp string) (Version, bool) {
	if c.opts.store == nil {
		return Version{}, false
	}
	v, err := c.opts.store.Version(ctx, c.name, fp)
	if err != nil {
		c.opts.log.Warn("score cache version read failed", "cache", c.name, "fingerprint", fp, "error", err)
		return Version{}, false
	}
	return v, true
}

func (c *Cache[V]) loadFromStore(ctx context.Context, fp string) (V, bool) {
	var zero V
	if c.opts.store == nil {
		return zero, false
	}
	raw, ok, err := c.opts.store.Get(ctx, c.name, fp)
	if err != nil {
		c.opts.log.Warn("score cache store read failed", "cache", c.name, "fingerprint", fp, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		c.opts.log.Warn("score cache store entry undecodable", "cache", c.name, "fingerprint", fp, "error", err)
		return zero, false
	}
	return v, true
}

// saveToStore writes v to the shared tier at version. It returns false only
// when the store refused the write because fp was invalidated since
// version was read; v is stale then and must not be kept anywhere.
func (c *Cache[V]) saveToStore(ctx context.Context, fp string, v V, version Version, versioned bool) bool {
	if c.opts.store == nil || !versioned {
		return true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.opts.log.Warn("score cache value not encodable", "cache", c.name, "error", err)
		return true
	}
	ok, err := c.opts.store.SetIfVersion(ctx, c.name, fp, raw, version)
	if err != nil {
		c.opts.log.Warn("score cache store write failed", "cache", c.name, "fingerprint", fp, "error", err)
		return true
	}
	if !ok {
		cacheRequests.WithLabelValues(c.name, "stale_write").Inc()
	}
	return ok
}

// Fingerprint derives a stable cache key from the inputs of a computation.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
