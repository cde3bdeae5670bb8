package generation

import (
	"context"
	"sync"
	"time"

	"sparkAPI/internal/catalog"
)

const DefaultCacheLifetime = 30 * 24 * time.Hour

// Cache stores generated challenges per fingerprint. Get returns nothing for
// absent or expired fingerprints. Put replaces the whole snapshot.
type Cache interface {
	Get(ctx context.Context, fingerprint string) ([]catalog.Challenge, error)
	Put(ctx context.Context, fingerprint string, challenges []catalog.Challenge) error
}

type snapshot struct {
	insertedAt time.Time
	challenges []catalog.Challenge
}

func (s *snapshot) fresh(now time.Time, lifetime time.Duration) bool {
	return now.Sub(s.insertedAt) < lifetime
}

// MemoryCache is an in-process Cache. Readers never lock: each fingerprint
// points at an immutable snapshot that writers swap out whole.
type MemoryCache struct {
	entries  sync.Map // fingerprint -> *snapshot
	lifetime time.Duration
	now      func() time.Time
}

func NewMemoryCache(lifetime time.Duration) *MemoryCache {
	if lifetime <= 0 {
		lifetime = DefaultCacheLifetime
	}
	return &MemoryCache{lifetime: lifetime, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Get(_ context.Context, fingerprint string) ([]catalog.Challenge, error) {
	v, ok := c.entries.Load(fingerprint)
	if !ok {
		return nil, nil
	}
	s := v.(*snapshot)
	if !s.fresh(c.now(), c.lifetime) {
		return nil, nil
	}
	return append([]catalog.Challenge(nil), s.challenges...), nil
}

func (c *MemoryCache) Put(_ context.Context, fingerprint string, challenges []catalog.Challenge) error {
	c.entries.Store(fingerprint, &snapshot{
		insertedAt: c.now(),
		challenges: append([]catalog.Challenge(nil), challenges...),
	})
	return nil
}
