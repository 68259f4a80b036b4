package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Embeddings
	EmbeddingProvider string `env:"EMBEDDING_PROVIDER" envDefault:"openai"` // "openai" (try learned encoders) or "hash" (deterministic only)
	EmbeddingDim      int    `env:"EMBEDDING_DIM" envDefault:"128"`
	OpenAIKey         string `env:"OPENAI_API_KEY"`
	EmbeddingBaseURL  string `env:"EMBEDDING_BASE_URL"`
	EmbeddingModel    string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	ImageEncoderURL   string `env:"IMAGE_ENCODER_URL"`
	ImageModel        string `env:"IMAGE_MODEL" envDefault:"mobilenet_v2"`
	ImageSize         int    `env:"IMAGE_SIZE" envDefault:"224"`
	ModelTimeout      int    `env:"MODEL_TIMEOUT_SECONDS" envDefault:"30"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"noop"` // "noop" or "redis"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Queue
	QueueURL string `env:"QUEUE_URL"` // NATS; empty disables the queue transport
}

// ModelTimeoutDuration returns ModelTimeout as a time.Duration.
func (c Config) ModelTimeoutDuration() time.Duration {
	return time.Duration(c.ModelTimeout) * time.Second
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
