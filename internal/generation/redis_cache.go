package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"sparkAPI/internal/catalog"
)

const redisKeyPrefix = "spark:generated:"

// RedisCache shares generated challenges between API instances. Redis TTL
// evicts old keys; freshness is still checked on read so the lifetime holds
// even if the TTL was set by an instance with a longer setting.
type RedisCache struct {
	rdb      *goredis.Client
	lifetime time.Duration
	now      func() time.Time
}

type redisSnapshot struct {
	InsertedAt time.Time           `json:"inserted_at"`
	Challenges []catalog.Challenge `json:"challenges"`
}

func NewRedisCache(rdb *goredis.Client, lifetime time.Duration) *RedisCache {
	if lifetime <= 0 {
		lifetime = DefaultCacheLifetime
	}
	return &RedisCache{rdb: rdb, lifetime: lifetime, now: time.Now}
}

// DialRedis connects and pings addr.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (c *RedisCache) WithClock(now func() time.Time) *RedisCache {
	c.now = now
	return c
}

func (c *RedisCache) Get(ctx context.Context, fingerprint string) ([]catalog.Challenge, error) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read generation cache: %w", err)
	}

	var s redisSnapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode generation cache: %w", err)
	}
	if c.now().Sub(s.InsertedAt) >= c.lifetime {
		return nil, nil
	}
	return s.Challenges, nil
}

func (c *RedisCache) Put(ctx context.Context, fingerprint string, challenges []catalog.Challenge) error {
	raw, err := json.Marshal(redisSnapshot{InsertedAt: c.now().UTC(), Challenges: challenges})
	if err != nil {
		return fmt.Errorf("failed to encode generation cache: %w", err)
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+fingerprint, raw, c.lifetime).Err(); err != nil {
		return fmt.Errorf("failed to write generation cache: %w", err)
	}
	return nil
}
