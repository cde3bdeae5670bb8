package generation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/couple"
)

var sample = []catalog.Challenge{{
	ID:          "ai_communication_boosters_1",
	Category:    "Communication Boosters",
	Title:       "Question Jar",
	Description: "Write five questions for {partner2}.",
	Difficulty:  catalog.DifficultyEasy,
}}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestFingerprintIgnoresNames(t *testing.T) {
	a := couple.Context{Partner1Name: "Alex", Partner2Name: "Sam", RelationshipStatus: "married", RelationshipDuration: "1-3 years"}
	b := couple.Context{Partner1Name: "Kim", Partner2Name: "Lee", RelationshipStatus: "married", RelationshipDuration: "1-3 years"}

	assert.Equal(t, Fingerprint(a, "Emotional Connection"), Fingerprint(b, "Emotional Connection"))
	assert.NotEqual(t, Fingerprint(a, "Emotional Connection"), Fingerprint(a, ""))
	assert.Len(t, Fingerprint(a, ""), 64)

	b.RelationshipStatus = "dating"
	assert.NotEqual(t, Fingerprint(a, "Emotional Connection"), Fingerprint(b, "Emotional Connection"))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(DefaultCacheLifetime).WithClock(clock.now)

	require.NoError(t, c.Put(ctx, "fp", sample))

	clock.advance(29 * 24 * time.Hour)
	got, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	clock.advance(2 * 24 * time.Hour)
	got, err = c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryCacheSnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)

	in := append([]catalog.Challenge(nil), sample...)
	require.NoError(t, c.Put(ctx, "fp", in))
	in[0].Title = "mutated after put"

	got, _ := c.Get(ctx, "fp")
	got[0].Title = "mutated after get"

	again, _ := c.Get(ctx, "fp")
	assert.Equal(t, "Question Jar", again[0].Title)

	missing, err := c.Get(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, DefaultCacheLifetime), mr
}

func TestRedisCacheRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)
	clock := &fakeClock{t: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)}
	c.WithClock(clock.now)

	require.NoError(t, c.Put(ctx, "fp", sample))
	assert.True(t, mr.Exists(redisKeyPrefix+"fp"))
	assert.Equal(t, DefaultCacheLifetime, mr.TTL(redisKeyPrefix+"fp"))

	clock.advance(29 * 24 * time.Hour)
	got, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	clock.advance(2 * 24 * time.Hour)
	got, err = c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisCacheMissAndCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	got, err := c.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "{not json"))
	_, err = c.Get(ctx, "bad")
	assert.Error(t, err)
}

func TestRedisCacheServerDown(t *testing.T) {
	c, mr := newRedisCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), "fp")
	assert.Error(t, err)
}
