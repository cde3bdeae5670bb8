package workers

import (
	"context"
	"sync"
	"time"

	"sparkAPI/internal/generation"
	"sparkAPI/internal/logger"
)

// Prefiller generates a batch of challenges into the shared cache.
type Prefiller interface {
	Prefill(ctx context.Context, req generation.BatchRequest) (int, error)
}

type PrefetchConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	// Cooldown suppresses repeat jobs for the same relationship context.
	Cooldown time.Duration
}

func DefaultPrefetchConfig() PrefetchConfig {
	return PrefetchConfig{
		Workers:    2,
		QueueSize:  32,
		JobTimeout: 60 * time.Second,
		Cooldown:   time.Hour,
	}
}

// PrefetchPool runs batch pre-generation off the request path. Schedule never
// blocks: when the queue is full the job is dropped.
type PrefetchPool struct {
	prefiller Prefiller
	cfg       PrefetchConfig
	log       *logger.Logger

	jobQueue chan generation.BatchRequest
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	lastSeen map[string]time.Time
	now      func() time.Time
	stopOnce sync.Once
}

func NewPrefetchPool(prefiller Prefiller, cfg PrefetchConfig, log *logger.Logger) *PrefetchPool {
	def := DefaultPrefetchConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	p := &PrefetchPool{
		prefiller: prefiller,
		cfg:       cfg,
		log:       log.With("component", "PrefetchPool"),
		jobQueue:  make(chan generation.BatchRequest, cfg.QueueSize),
		stopChan:  make(chan struct{}),
		lastSeen:  make(map[string]time.Time),
		now:       time.Now,
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *PrefetchPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			p.process(id, job)
		case <-p.stopChan:
			return
		}
	}
}

func (p *PrefetchPool) process(id int, job generation.BatchRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.JobTimeout)
	defer cancel()

	n, err := p.prefiller.Prefill(ctx, job)
	if err != nil {
		p.log.Warn("batch prefetch failed", "worker", id, "error", err)
		return
	}
	p.log.Debug("batch prefetch stored challenges", "worker", id, "count", n)
}

// Schedule offers a job and reports whether it was queued.
func (p *PrefetchPool) Schedule(job generation.BatchRequest) bool {
	key := job.Couple.RelationshipStatus + "|" + job.Couple.RelationshipDuration

	p.mu.Lock()
	if last, ok := p.lastSeen[key]; ok && p.now().Sub(last) < p.cfg.Cooldown {
		p.mu.Unlock()
		return false
	}
	p.lastSeen[key] = p.now()
	p.mu.Unlock()

	select {
	case <-p.stopChan:
		return false
	default:
	}

	select {
	case p.jobQueue <- job:
		return true
	default:
		p.log.Warn("prefetch queue full, dropping job")
		p.mu.Lock()
		delete(p.lastSeen, key)
		p.mu.Unlock()
		return false
	}
}

// Stop stops accepting work and waits for running jobs to finish. Queued jobs
// that have not started are discarded.
func (p *PrefetchPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		p.wg.Wait()
	})
}
