// Package cache provides the short-lived read-through cache used for the
// schedule's reference collections (vehicles, drivers, routes).
//
// Two Store backends exist: Redis, shared across console instances, and an
// in-process map for single-instance and development deployments. Values
// are stored as JSON in both so callers always receive a private copy.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// keyPrefix namespaces every key this service writes.
const keyPrefix = "transsync:schedule:"

// Store is a byte-oriented key/value cache with per-key expiry.
type Store interface {
	// Get returns the raw value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Key returns the namespaced key for a collection name.
func Key(collection string) string {
	return keyPrefix + collection
}

// ReadThrough returns the cached value at key, or calls fetch and caches its
// result for ttl. Cache failures are logged and never returned: the fetch
// result is authoritative.
func ReadThrough[T any](ctx context.Context, s Store, log *slog.Logger, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if raw, ok, err := s.Get(ctx, key); err != nil {
		log.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		log.WarnContext(ctx, "cache entry corrupt, refetching", "key", key)
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		log.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return v, nil
	}
	if err := s.Set(ctx, key, raw, ttl); err != nil {
		log.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// Invalidate deletes the given collections, returning a wrapped error.
func Invalidate(ctx context.Context, s Store, collections ...string) error {
	keys := make([]string, 0, len(collections))
	for _, c := range collections {
		keys = append(keys, Key(c))
	}
	if err := s.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("cache.Invalidate: %w", err)
	}
	return nil
}
