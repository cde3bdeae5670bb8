package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/couple"
	"sparkAPI/internal/progress"
	"sparkAPI/internal/selection"
)

// stubGenerator returns queued results in order and records every call.
type stubGenerator struct {
	mu      sync.Mutex
	results []stubResult
	batch   []catalog.Challenge
	calls   int
	block   bool
}

type stubResult struct {
	ch  catalog.Challenge
	err error
}

func (s *stubGenerator) Generate(ctx context.Context, req Request) (catalog.Challenge, error) {
	s.mu.Lock()
	s.calls++
	var r stubResult
	if len(s.results) > 0 {
		r = s.results[0]
		s.results = s.results[1:]
	} else {
		r.err = errors.New("no result queued")
	}
	block := s.block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return catalog.Challenge{}, ctx.Err()
	}
	return r.ch, r.err
}

func (s *stubGenerator) GenerateBatch(ctx context.Context, req BatchRequest) ([]catalog.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.batch == nil {
		return nil, errors.New("batch failed")
	}
	return s.batch, nil
}

var ctxMarried = couple.Context{Partner1Name: "Alex", Partner2Name: "Sam", RelationshipStatus: "married", RelationshipDuration: "5+ years"}

func generated(title, category string) catalog.Challenge {
	return catalog.Challenge{ID: "ai_x_" + title, Title: title, Description: "d", Category: category, Difficulty: catalog.DifficultyEasy}
}

func newTestPipeline(gen Generator, cfg PipelineConfig) (*Pipeline, *MemoryCache) {
	cache := NewMemoryCache(DefaultCacheLifetime)
	return NewPipeline(gen, cache, selection.NewSeededRand(1), cfg, nil, nil), cache
}

func TestPipelineGeneratesAndCaches(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{results: []stubResult{{ch: generated("one", "Emotional Connection")}}}
	p, cache := newTestPipeline(gen, PipelineConfig{})

	res := p.Challenge(ctx, ctxMarried, "Emotional Connection", nil)
	assert.Equal(t, progress.SourceGenerated, res.Source)
	assert.Equal(t, "one", res.Challenge.Title)

	cached, _ := cache.Get(ctx, Fingerprint(ctxMarried, "Emotional Connection"))
	assert.Len(t, cached, 1)

	res = p.Challenge(ctx, ctxMarried, "Emotional Connection", nil)
	assert.Equal(t, progress.SourceCache, res.Source)
	assert.Equal(t, "one", res.Challenge.Title)
	assert.Equal(t, 1, gen.calls, "cache hit does not call the generator")
}

func TestPipelineSkipsCompletedCachedChallenges(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{results: []stubResult{{ch: generated("fresh", "Emotional Connection")}}}
	p, cache := newTestPipeline(gen, PipelineConfig{})

	fp := Fingerprint(ctxMarried, "Emotional Connection")
	old := generated("old", "Emotional Connection")
	other := generated("other", "Emotional Connection")
	require.NoError(t, cache.Put(ctx, fp, []catalog.Challenge{old, other}))

	for i := 0; i < 10; i++ {
		res := p.Challenge(ctx, ctxMarried, "Emotional Connection", map[string]bool{old.ID: true})
		assert.Equal(t, progress.SourceCache, res.Source)
		assert.Equal(t, other.ID, res.Challenge.ID)
	}
	assert.Zero(t, gen.calls)

	// Every cached challenge is done: generate and keep the old entries.
	res := p.Challenge(ctx, ctxMarried, "Emotional Connection", map[string]bool{old.ID: true, other.ID: true})
	assert.Equal(t, progress.SourceGenerated, res.Source)
	assert.Equal(t, "fresh", res.Challenge.Title)
	assert.Equal(t, 1, gen.calls)

	cached, err := cache.Get(ctx, fp)
	require.NoError(t, err)
	assert.Len(t, cached, 3)
}

func TestPipelineRetriesOnceThenFallsBack(t *testing.T) {
	gen := &stubGenerator{results: []stubResult{{err: errors.New("boom")}, {err: errors.New("boom again")}}}
	p, _ := newTestPipeline(gen, PipelineConfig{})

	res := p.Challenge(context.Background(), ctxMarried, "Sexual Exploration", nil)
	assert.Equal(t, progress.SourceFallback, res.Source)
	assert.Equal(t, Fallback("Sexual Exploration"), res.Challenge)
	assert.Equal(t, 2, gen.calls)
}

func TestPipelineRetrySucceeds(t *testing.T) {
	gen := &stubGenerator{results: []stubResult{{err: errors.New("flaky")}, {ch: generated("two", "Emotional Connection")}}}
	p, _ := newTestPipeline(gen, PipelineConfig{})

	res := p.Challenge(context.Background(), ctxMarried, "Emotional Connection", nil)
	assert.Equal(t, progress.SourceGenerated, res.Source)
	assert.Equal(t, 2, gen.calls)
}

func TestPipelineTimeoutFallsBack(t *testing.T) {
	gen := &stubGenerator{block: true}
	p, _ := newTestPipeline(gen, PipelineConfig{Timeout: 10 * time.Millisecond})

	start := time.Now()
	res := p.Challenge(context.Background(), ctxMarried, "", nil)
	assert.Equal(t, progress.SourceFallback, res.Source)
	assert.Equal(t, catalog.DefaultCategory, res.Challenge.Category)
	assert.Equal(t, 2, gen.calls)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPipelineDisabled(t *testing.T) {
	p, _ := newTestPipeline(nil, PipelineConfig{})
	assert.False(t, p.Enabled())

	res := p.Challenge(context.Background(), ctxMarried, "Emotional Connection", nil)
	assert.Equal(t, progress.SourceFallback, res.Source)
	assert.Equal(t, FallbackID, res.Challenge.ID)
	assert.Equal(t, "Emotional Connection", res.Challenge.Category)
}

func TestPipelineRateLimited(t *testing.T) {
	gen := &stubGenerator{results: []stubResult{
		{ch: generated("a", "A")},
		{ch: generated("b", "B")},
	}}
	p, _ := newTestPipeline(gen, PipelineConfig{PerMinute: 1})

	first := p.Challenge(context.Background(), ctxMarried, "A", nil)
	assert.Equal(t, progress.SourceGenerated, first.Source)

	second := p.Challenge(context.Background(), ctxMarried, "B", nil)
	assert.Equal(t, progress.SourceFallback, second.Source)
	assert.Equal(t, 1, gen.calls)
}

func TestPrefillMergesByCategory(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{batch: []catalog.Challenge{
		generated("b1", "Emotional Connection"),
		generated("b2", "Emotional Connection"),
		generated("b3", "Sexual Exploration"),
	}}
	p, cache := newTestPipeline(gen, PipelineConfig{})

	existingFP := Fingerprint(ctxMarried, "Emotional Connection")
	require.NoError(t, cache.Put(ctx, existingFP, []catalog.Challenge{generated("old", "Emotional Connection")}))

	n, err := p.Prefill(ctx, BatchRequest{Couple: ctxMarried, Count: 3, Categories: []string{"Emotional Connection", "Sexual Exploration"}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	emotional, _ := cache.Get(ctx, existingFP)
	assert.Len(t, emotional, 3)
	assert.Equal(t, "old", emotional[0].Title)

	sexual, _ := cache.Get(ctx, Fingerprint(ctxMarried, "Sexual Exploration"))
	assert.Len(t, sexual, 1)
}

func TestPrefillFailureIsReported(t *testing.T) {
	p, _ := newTestPipeline(&stubGenerator{}, PipelineConfig{})
	_, err := p.Prefill(context.Background(), BatchRequest{Couple: ctxMarried, Count: 2})
	assert.ErrorIs(t, err, ErrUnavailable)

	disabled, _ := newTestPipeline(nil, PipelineConfig{})
	_, err = disabled.Prefill(context.Background(), BatchRequest{Couple: ctxMarried, Count: 2})
	assert.ErrorIs(t, err, ErrUnavailable)
}
