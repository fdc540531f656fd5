package scorecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
)

// Version is the generation of one stored fingerprint. Invalidating the
// fingerprint advances Seq, invalidating the whole namespace advances Epoch.
// A write carrying an older Version is refused, so a computation that
// started before an invalidation can never land in the shared tier.
type Version struct {
	Epoch int64 `json:"epoch"`
	Seq   int64 `json:"seq"`
}

// Store is a shared second tier holding encoded values, grouped by
// namespace (the cache name).
type Store interface {
	Get(ctx context.Context, ns, fp string) ([]byte, bool, error)
	// Version reads the current generation of fp. Read it before reading
	// the inputs of a computation.
	Version(ctx context.Context, ns, fp string) (Version, error)
	// SetIfVersion writes value only if fp is still at version. It reports
	// false when a newer invalidation refused the write.
	SetIfVersion(ctx context.Context, ns, fp string, value []byte, version Version) (bool, error)
	Invalidate(ctx context.Context, ns, fp string) error
	InvalidateAll(ctx context.Context, ns string) error
}

// Invalidation tells other instances to drop an entry, or a whole cache.
type Invalidation struct {
	Cache       string `json:"cache"`
	Fingerprint string `json:"fingerprint,omitempty"`
	All         bool   `json:"all,omitempty"`
	Origin      string `json:"origin"`
}

// Bus carries invalidations between instances.
type Bus interface {
	Publish(ctx context.Context, msg Invalidation) error
	Subscribe(ctx context.Context, onMsg func(Invalidation)) error
}

const scanBatch = 500

// setIfVersion compares the namespace epoch and the key sequence with the
// caller's and writes only when both still match.
var setIfVersion = redis.NewScript(`
local epoch = redis.call('GET', KEYS[3]) or '0'
local seq = redis.call('GET', KEYS[2]) or '0'
if epoch ~= ARGV[2] or seq ~= ARGV[3] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

// RedisStore implements Store and Bus on a single Redis client. Values are
// written without TTL: entries live until invalidated.
//
// Layout under prefix: "<ns>:<fp>" holds the value, "<ns>:<fp>@ver" its
// sequence and "<ns>@epoch" the namespace epoch.
type RedisStore struct {
	rdb     *redis.Client
	prefix  string
	channel string
	log     *logger.Logger
}

func NewRedisStore(rdb *redis.Client, prefix, channel string, log *logger.Logger) *RedisStore {
	return &RedisStore{
		rdb:     rdb,
		prefix:  prefix,
		channel: channel,
		log:     log.With("service", "RedisScoreStore"),
	}
}

func (s *RedisStore) valueKey(ns, fp string) string { return s.prefix + ns + ":" + fp }
func (s *RedisStore) seqKey(ns, fp string) string   { return s.valueKey(ns, fp) + "@ver" }
func (s *RedisStore) epochKey(ns string) string     { return s.prefix + ns + "@epoch" }

func (s *RedisStore) Get(ctx context.Context, ns, fp string) ([]byte, bool, error) {
	raw, err := s.rdb.Get(ctx, s.valueKey(ns, fp)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisStore) Version(ctx context.Context, ns, fp string) (Version, error) {
	vals, err := s.rdb.MGet(ctx, s.epochKey(ns), s.seqKey(ns, fp)).Result()
	if err != nil {
		return Version{}, err
	}
	epoch, err := counterValue(vals[0])
	if err != nil {
		return Version{}, err
	}
	seq, err := counterValue(vals[1])
	if err != nil {
		return Version{}, err
	}
	return Version{Epoch: epoch, Seq: seq}, nil
}

func (s *RedisStore) SetIfVersion(ctx context.Context, ns, fp string, value []byte, version Version) (bool, error) {
	keys := []string{s.valueKey(ns, fp), s.seqKey(ns, fp), s.epochKey(ns)}
	n, err := setIfVersion.Run(ctx, s.rdb, keys, value, version.Epoch, version.Seq).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, ns, fp string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, s.seqKey(ns, fp))
		pipe.Del(ctx, s.valueKey(ns, fp))
		return nil
	})
	return err
}

// InvalidateAll advances the epoch first so in-flight writers are refused,
// then clears values and sequences.
func (s *RedisStore) InvalidateAll(ctx context.Context, ns string) error {
	if err := s.rdb.Incr(ctx, s.epochKey(ns)).Err(); err != nil {
		return err
	}

	iter := s.rdb.Scan(ctx, 0, s.prefix+ns+":*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

func counterValue(v interface{}) (int64, error) {
	if v == nil {
		return 0, nil
	}
	str, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected counter type %T", v)
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Publish(ctx context.Context, msg Invalidation) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, raw).Err()
}

func (s *RedisStore) Subscribe(ctx context.Context, onMsg func(Invalidation)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := s.rdb.Subscribe(ctx, s.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var msg Invalidation
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					s.log.Warn("bad invalidation payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}
