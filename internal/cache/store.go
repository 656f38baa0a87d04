package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"antisocial/internal/middleware"
	"antisocial/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Store is a nil-safe JSON cache over Redis. A nil Store or a Store without a client
// behaves as a permanent miss, so callers never branch on cache availability.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps rdb. rdb may be nil.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Enabled reports whether a Redis client backs the store.
func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

// versionTTL bounds how long an invalidation version outlives its key. A version that expires
// while a fetch is in flight only makes that fetch skip its cache write.
const versionTTL = time.Hour

func versionKey(key string) string {
	return key + ":v"
}

// version returns the invalidation counter of key, 0 when it was never invalidated.
func (s *Store) version(ctx context.Context, key string) (int64, error) {
	v, err := s.rdb.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// setIfVersion stores v under key only while key's invalidation counter still equals
// expected, so a value fetched before an invalidation is never written after it.
func (s *Store) setIfVersion(ctx context.Context, key string, expected int64, v any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}

	written := false
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(key)).Int64()
		if errors.Is(err, redis.Nil) {
			current, err = 0, nil
		}
		if err != nil {
			return err
		}
		if current != expected {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		written = err == nil
		return err
	}, versionKey(key))
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return written, err
}

// Aside tries Redis first and on a miss calls fetch, which must populate dest, then stores
// dest with ttl unless key was invalidated while fetch ran. Redis failures degrade to fetch;
// only fetch errors are returned.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	ctx, span := observability.TraceRedisOperation(ctx, "aside")
	defer span.End()

	found, err := s.GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	case found:
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return nil
	default:
		observability.CacheLookups.WithLabelValues("miss").Inc()
	}

	// The version is read before fetch: an invalidation that lands after this point bumps it.
	cacheable := s.Enabled() && err == nil
	var ver int64
	if cacheable {
		if ver, err = s.version(ctx, key); err != nil {
			cacheable = false
			middleware.Logger.WarnContext(ctx, "cache version read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	if err := fetch(); err != nil {
		return err
	}

	if !cacheable {
		return nil
	}
	written, err := s.setIfVersion(ctx, key, ver, dest, ttl)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if !written {
		observability.CacheLookups.WithLabelValues("stale_skipped").Inc()
	}
	return nil
}

// Invalidate bumps key's version and removes it. Failures are logged; a stale entry expires
// with its TTL.
func (s *Store) Invalidate(ctx context.Context, key string) {
	if !s.Enabled() {
		return
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(key))
		pipe.Expire(ctx, versionKey(key), versionTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
