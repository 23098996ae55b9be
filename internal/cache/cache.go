// Package cache is the best-effort key/value store in front of catalog
// responses and behind login sessions. A miss or a failure is never an error
// for the caller; it falls through to the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Cache stores opaque values under string keys with a time to live.
// A zero ttl means the store's default.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string)
	Close()
}

// Noop is a Cache that never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Delete(context.Context, string) {}

func (Noop) Close() {}

// GetJSON decodes a cached JSON value into dst. It reports false on a miss
// or when the cached bytes no longer decode.
func GetJSON(ctx context.Context, c Cache, key string, dst any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Debug("discarding undecodable cache entry", "key", key, "error", err)
		c.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON encodes v and stores it. Failures are logged and swallowed.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Debug("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		slog.Debug("cache set failed", "key", key, "error", err)
	}
}
