package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkAPI/internal/couple"
	"sparkAPI/internal/generation"
)

type recordingPrefiller struct {
	mu      sync.Mutex
	calls   []generation.BatchRequest
	err     error
	release chan struct{}
	done    chan struct{}
}

func (r *recordingPrefiller) Prefill(ctx context.Context, req generation.BatchRequest) (int, error) {
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return req.Count, r.err
}

func job(status string) generation.BatchRequest {
	return generation.BatchRequest{
		Couple:     couple.Context{RelationshipStatus: status, RelationshipDuration: "1-3 years"},
		Count:      5,
		Categories: []string{"Emotional Connection"},
	}
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("prefetch job did not run")
	}
}

func TestPrefetchRunsJob(t *testing.T) {
	pf := &recordingPrefiller{done: make(chan struct{}, 1)}
	pool := NewPrefetchPool(pf, PrefetchConfig{Workers: 1, Cooldown: time.Hour}, nil)
	defer pool.Stop()

	require.True(t, pool.Schedule(job("married")))
	waitDone(t, pf.done)

	pf.mu.Lock()
	defer pf.mu.Unlock()
	require.Len(t, pf.calls, 1)
	assert.Equal(t, 5, pf.calls[0].Count)
}

func TestPrefetchCooldown(t *testing.T) {
	pf := &recordingPrefiller{done: make(chan struct{}, 4), err: errors.New("generator down")}
	pool := NewPrefetchPool(pf, PrefetchConfig{Workers: 1, Cooldown: time.Hour}, nil)
	defer pool.Stop()

	clock := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	pool.now = func() time.Time { return clock }

	assert.True(t, pool.Schedule(job("married")))
	waitDone(t, pf.done)

	assert.False(t, pool.Schedule(job("married")), "same context inside cooldown")
	assert.True(t, pool.Schedule(job("dating")))
	waitDone(t, pf.done)

	clock = clock.Add(2 * time.Hour)
	assert.True(t, pool.Schedule(job("married")))
	waitDone(t, pf.done)
}

func TestPrefetchDropsWhenFull(t *testing.T) {
	pf := &recordingPrefiller{release: make(chan struct{})}
	pool := NewPrefetchPool(pf, PrefetchConfig{Workers: 1, QueueSize: 1}, nil)

	// first job occupies the worker, second fills the queue
	assert.True(t, pool.Schedule(job("a")))
	require.Eventually(t, func() bool { return len(pool.jobQueue) == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, pool.Schedule(job("b")))
	assert.False(t, pool.Schedule(job("c")))

	close(pf.release)
	pool.Stop()
	assert.False(t, pool.Schedule(job("d")), "stopped pool accepts nothing")
}
