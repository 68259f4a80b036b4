package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"match-embed/internal/cache"
	"match-embed/internal/config"
	"match-embed/internal/embeddings"
	"match-embed/internal/logger"
	"match-embed/internal/metrics"
	"match-embed/internal/predict"
	"match-embed/internal/queue"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Predictor *predict.Service
	Metrics   *metrics.Metrics
	Queue     queue.Queue // nil when QUEUE_URL is unset

	closers []func()
}

// Build loads env, config, and shared components. The embedding strategy is
// resolved here, once, for the lifetime of the process.
func Build(ctx context.Context, service string) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(service, cfg.LogLevel)

	engine, err := BuildEngine(ctx, cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embeddings: %w", err)
	}
	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	deps := Deps{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New(service),
		closers: []func(){func() { _ = c.Close() }},
	}
	deps.Predictor = predict.New(engine, c, deps.Metrics, log, cfg.CacheTTLDuration())

	if cfg.QueueURL != "" {
		nc, err := nats.Connect(cfg.QueueURL, nats.Name(service))
		if err != nil {
			deps.Close()
			return Deps{}, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		deps.Queue = queue.NewNATS(log, nc)
		deps.closers = append(deps.closers, nc.Close)
	}
	return deps, nil
}

// Close releases connections opened by Build.
func (d Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// BuildEngine resolves the embedding strategy from cfg. A non-positive
// EMBEDDING_DIM is fatal; a primary model that cannot load is not.
func BuildEngine(ctx context.Context, cfg config.Config, log *slog.Logger) (*embeddings.Engine, error) {
	fallback, err := embeddings.NewFallbackEncoder(cfg.EmbeddingDim)
	if err != nil {
		return nil, err
	}
	switch cfg.EmbeddingProvider {
	case "hash":
		log.Info("primary model disabled by EMBEDDING_PROVIDER=hash")
		return embeddings.SelectStrategy(ctx, nil, fallback, log)
	case "openai":
		return embeddings.SelectStrategy(ctx, PrimaryLoader(cfg), fallback, log)
	default:
		return nil, fmt.Errorf("%w: invalid EMBEDDING_PROVIDER: %s (valid options: openai, hash)", embeddings.ErrInvalidConfiguration, cfg.EmbeddingProvider)
	}
}

// PrimaryLoader adapts cfg into a loader for embeddings.SelectStrategy.
func PrimaryLoader(cfg config.Config) embeddings.Loader {
	return func(ctx context.Context) (embeddings.Model, error) {
		m, err := embeddings.LoadPrimaryModel(ctx, embeddings.PrimaryConfig{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.EmbeddingBaseURL,
			TextModel:  cfg.EmbeddingModel,
			ImageURL:   cfg.ImageEncoderURL,
			ImageModel: cfg.ImageModel,
			ImageSize:  cfg.ImageSize,
			Timeout:    cfg.ModelTimeoutDuration(),
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "noop", "":
		return cache.NewNoOpCache(), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
		}
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr)
		return c, nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: noop, redis)", cfg.CacheProvider)
	}
}
