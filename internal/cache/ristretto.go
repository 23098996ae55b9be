package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

var errRejected = errors.New("cache rejected the entry")

// Config sizes the in-process cache
type Config struct {
	Prefix     string        // prepended to every key
	DefaultTTL time.Duration // used when Set is called with ttl 0
	MaxCost    int64         // total bytes kept before eviction
}

// Store is a Cache backed by ristretto. Every key is namespaced with the configured prefix.
type Store struct {
	prefix string
	ttl    time.Duration
	rc     *ristretto.Cache[string, []byte]
}

// New creates a ristretto-backed store
func New(cfg Config) (*Store, error) {
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 64 << 20
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e5,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Store{prefix: cfg.Prefix, ttl: cfg.DefaultTTL, rc: rc}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool) {
	return s.rc.Get(s.prefix + key)
}

// Set stores the value and waits until it is visible to readers
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	if !s.rc.SetWithTTL(s.prefix+key, value, int64(max(1, len(value))), ttl) {
		return errRejected
	}
	s.rc.Wait()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) {
	s.rc.Del(s.prefix + key)
}

func (s *Store) Close() {
	s.rc.Close()
}
