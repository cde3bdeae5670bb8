package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	Timezone *time.Location

	DatabaseURL string
	RedisAddr   string

	ClerkSecretKey     string
	ClerkWebhookSecret string
	MetricsUser        string
	MetricsPass        string

	GoogleAPIKey        string
	GeminiModel         string
	GenerationTimeout   time.Duration
	GenerationPerMinute int
	GenerationBatchSize int
	GenerationCacheDays int
	ExhaustionRatio     float64
	NoveltyEvery        int
	StreakMilestones    []int

	RateLimitRPS   float64
	RateLimitBurst int
}

var ErrMissingSetting = errors.New("missing required setting")

// Load reads .env (when present) and the process environment. It never fails
// on optional settings; use RequireServer for the HTTP server's mandatory ones.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	tzName := String("APP_TIMEZONE", "UTC")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("failed to load APP_TIMEZONE %q: %w", tzName, err)
	}

	return &Config{
		Port:     String("PORT", "3333"),
		AppEnv:   String("APP_ENV", "dev"),
		Timezone: tz,

		DatabaseURL: String("DATABASE_URL", ""),
		RedisAddr:   String("REDIS_ADDR", ""),

		ClerkSecretKey:     String("CLERK_SECRET_KEY", ""),
		ClerkWebhookSecret: String("CLERK_WEBHOOK_SECRET", ""),
		MetricsUser:        String("METRICS_USER", ""),
		MetricsPass:        String("METRICS_PASS", ""),

		GoogleAPIKey:        String("GOOGLE_API_KEY", ""),
		GeminiModel:         String("GEMINI_MODEL", "gemini-1.5-pro"),
		GenerationTimeout:   Seconds("GENERATION_TIMEOUT_SECONDS", 20*time.Second),
		GenerationPerMinute: Int("GENERATION_RATE_PER_MINUTE", 30),
		GenerationBatchSize: Int("GENERATION_BATCH_SIZE", 5),
		GenerationCacheDays: Int("GENERATION_CACHE_DAYS", 30),
		ExhaustionRatio:     Float("EXHAUSTION_RATIO", 0.7),
		NoveltyEvery:        Int("NOVELTY_EVERY", 10),
		StreakMilestones:    Ints("STREAK_MILESTONES", []int{7, 14, 30, 50, 100}),

		RateLimitRPS:   Float("RATE_LIMIT_RPS", 5),
		RateLimitBurst: Int("RATE_LIMIT_BURST", 30),
	}, nil
}

func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingSetting)
	}
	return nil
}

func (c *Config) RequireServer() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if c.ClerkSecretKey == "" {
		return fmt.Errorf("%w: CLERK_SECRET_KEY", ErrMissingSetting)
	}
	return nil
}

func (c *Config) GenerationEnabled() bool {
	return c.GoogleAPIKey != ""
}

func (c *Config) CacheLifetime() time.Duration {
	return time.Duration(c.GenerationCacheDays) * 24 * time.Hour
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production"
}
