package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/config"
	"sparkAPI/internal/generation"
	"sparkAPI/internal/logger"
	"sparkAPI/internal/metrics"
	"sparkAPI/internal/selection"
	"sparkAPI/internal/store/postgres"
	"sparkAPI/internal/workers"
	"sparkAPI/services"
)

// App holds the long-lived dependencies shared by the HTTP server and sparkctl.
type App struct {
	Pool    *pgxpool.Pool
	Store   *postgres.Store
	Catalog *catalog.Catalog
	Metrics *metrics.Metrics

	Pipeline *generation.Pipeline
	Prefetch *workers.PrefetchPool

	Couples    *services.CoupleService
	Challenges *services.ChallengeService
	Stats      *services.StatsService
	Content    *services.ContentService

	redis *goredis.Client
	log   *logger.Logger
}

// New connects to the database, migrates it and builds the services. Redis and
// the external generator are optional and only wired when configured.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, reg prometheus.Registerer) (*App, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("Connected to database")

	cat, err := catalog.Default()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	a := &App{
		Pool:    pool,
		Store:   postgres.New(pool),
		Catalog: cat,
		Metrics: metrics.New(reg),
		log:     log,
	}

	var cache generation.Cache
	if cfg.RedisAddr != "" {
		rdb, err := generation.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = rdb
		cache = generation.NewRedisCache(rdb, cfg.CacheLifetime())
		log.Info("Generation cache backed by redis", "addr", cfg.RedisAddr)
	} else {
		cache = generation.NewMemoryCache(cfg.CacheLifetime())
	}

	var generator generation.Generator
	if cfg.GenerationEnabled() {
		gemini, err := generation.NewGeminiGenerator(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn("Challenge generation disabled", "error", err)
		} else {
			generator = gemini
			log.Info("Challenge generation enabled", "model", cfg.GeminiModel)
		}
	}

	rng := selection.NewRand()
	a.Pipeline = generation.NewPipeline(generator, cache, rng, generation.PipelineConfig{
		Timeout:   cfg.GenerationTimeout,
		PerMinute: cfg.GenerationPerMinute,
	}, log, a.Metrics)

	var prefetch services.Prefetcher
	if a.Pipeline.Enabled() {
		a.Prefetch = workers.NewPrefetchPool(a.Pipeline, workers.DefaultPrefetchConfig(), log)
		prefetch = a.Prefetch
	}

	policy := selection.DefaultPolicy()
	policy.ExhaustionRatio = cfg.ExhaustionRatio
	policy.NoveltyEvery = cfg.NoveltyEvery
	policy.Milestones = cfg.StreakMilestones

	a.Challenges = services.NewChallengeService(a.Store, cat, a.Pipeline, prefetch, rng, services.ChallengeServiceConfig{
		Policy:    policy,
		BatchSize: cfg.GenerationBatchSize,
		Location:  cfg.Timezone,
	}, log, a.Metrics)
	a.Couples = services.NewCoupleService(a.Store, cat, a.Challenges, log)
	a.Stats = services.NewStatsService(a.Store, cat, cfg.Timezone)
	a.Content = services.NewContentService(a.Store, cat)

	return a, nil
}

func (a *App) Ping(ctx context.Context) error {
	return a.Store.Ping(ctx)
}

// Close drains the prefetch workers before closing connections they use.
func (a *App) Close() {
	if a.Prefetch != nil {
		a.Prefetch.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close redis", "error", err)
		}
	}
	a.log.Info("Closing database connection pool")
	a.Pool.Close()
}
