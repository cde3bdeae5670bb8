package generation

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/couple"
	"sparkAPI/internal/logger"
	"sparkAPI/internal/metrics"
	"sparkAPI/internal/progress"
	"sparkAPI/internal/selection"
)

const DefaultTimeout = 20 * time.Second

// maxAttempts is the first call plus the single permitted retry.
const maxAttempts = 2

type PipelineConfig struct {
	Timeout time.Duration
	// PerMinute bounds calls to the generator across all requests. Zero
	// means unlimited.
	PerMinute int
}

// Pipeline turns a generation request into a displayable challenge. It
// consults the cache first, bounds calls to the generator, and degrades to
// Fallback on any failure.
type Pipeline struct {
	generator Generator
	cache     Cache
	limiter   *rate.Limiter
	timeout   time.Duration
	rng       selection.Rand
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewPipeline wires the pipeline. generator may be nil, in which case only
// cached challenges and the fallback are served.
func NewPipeline(generator Generator, cache Cache, rng selection.Rand, cfg PipelineConfig, log *logger.Logger, m *metrics.Metrics) *Pipeline {
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheLifetime)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	var limiter *rate.Limiter
	if cfg.PerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PerMinute)), cfg.PerMinute)
	}
	return &Pipeline{
		generator: generator,
		cache:     cache,
		limiter:   limiter,
		timeout:   cfg.Timeout,
		rng:       rng,
		log:       log.With("component", "GenerationPipeline"),
		metrics:   m,
	}
}

func (p *Pipeline) Enabled() bool {
	return p != nil && p.generator != nil
}

type Result struct {
	Challenge catalog.Challenge
	Source    progress.Source
}

// Challenge never fails: when neither cache nor generator can serve, the
// fallback challenge is returned. Cached challenges whose ids are in done are
// skipped; when none remain the lookup counts as a miss.
func (p *Pipeline) Challenge(ctx context.Context, c couple.Context, category string, done map[string]bool) Result {
	fp := Fingerprint(c, category)

	cached, err := p.cache.Get(ctx, fp)
	if err != nil {
		p.log.Warn("generation cache read failed", "error", err)
	}
	fresh := unseen(cached, done)
	p.metrics.CacheLookup(len(fresh) > 0)
	if len(fresh) > 0 {
		return Result{Challenge: fresh[p.rng.Intn(len(fresh))], Source: progress.SourceCache}
	}

	ch, err := p.generate(ctx, Request{Couple: c, Category: category})
	if err != nil {
		p.log.Warn("challenge generation unavailable, using fallback", "category", category, "error", err)
		return Result{Challenge: Fallback(category), Source: progress.SourceFallback}
	}

	merged := make([]catalog.Challenge, 0, len(cached)+1)
	merged = append(merged, cached...)
	merged = append(merged, ch)
	if err := p.cache.Put(ctx, fp, merged); err != nil {
		p.log.Warn("generation cache write failed", "error", err)
	}
	return Result{Challenge: ch, Source: progress.SourceGenerated}
}

func unseen(cached []catalog.Challenge, done map[string]bool) []catalog.Challenge {
	if len(done) == 0 {
		return cached
	}
	out := make([]catalog.Challenge, 0, len(cached))
	for _, ch := range cached {
		if !done[ch.ID] {
			out = append(out, ch)
		}
	}
	return out
}

func (p *Pipeline) generate(ctx context.Context, req Request) (catalog.Challenge, error) {
	if p.generator == nil {
		p.metrics.Generation("disabled")
		return catalog.Challenge{}, ErrUnavailable
	}
	if p.limiter != nil && !p.limiter.Allow() {
		p.metrics.Generation("rate_limited")
		return catalog.Challenge{}, ErrUnavailable
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		ch, err := p.generator.Generate(callCtx, req)
		cancel()
		if err == nil {
			p.metrics.Generation("ok")
			return ch, nil
		}

		lastErr = err
		if errors.Is(err, context.DeadlineExceeded) {
			p.metrics.Generation("timeout")
		} else {
			p.metrics.Generation("error")
		}
		p.log.Debug("generation attempt failed", "attempt", attempt, "error", err)
	}
	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return catalog.Challenge{}, errors.Join(ErrUnavailable, lastErr)
}

// Prefill generates a batch and merges it into the cache by category. It is
// meant to run off the request path; errors are returned for logging only.
func (p *Pipeline) Prefill(ctx context.Context, req BatchRequest) (int, error) {
	if p.generator == nil {
		return 0, ErrUnavailable
	}
	if req.Count <= 0 {
		return 0, nil
	}
	if p.limiter != nil && !p.limiter.Allow() {
		p.metrics.Generation("rate_limited")
		return 0, ErrUnavailable
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	batch, err := p.generator.GenerateBatch(callCtx, req)
	if err != nil {
		p.metrics.Generation("error")
		return 0, errors.Join(ErrUnavailable, err)
	}
	p.metrics.Generation("ok")

	byCategory := make(map[string][]catalog.Challenge)
	for _, ch := range batch {
		byCategory[ch.Category] = append(byCategory[ch.Category], ch)
	}

	stored := 0
	for category, fresh := range byCategory {
		fp := Fingerprint(req.Couple, category)
		existing, err := p.cache.Get(ctx, fp)
		if err != nil {
			p.log.Warn("generation cache read failed", "error", err)
		}
		merged := make([]catalog.Challenge, 0, len(existing)+len(fresh))
		merged = append(merged, existing...)
		merged = append(merged, fresh...)
		if err := p.cache.Put(ctx, fp, merged); err != nil {
			return stored, err
		}
		stored += len(fresh)
	}
	return stored, nil
}
