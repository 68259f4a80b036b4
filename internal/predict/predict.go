package predict

import (
	"context"
	"log/slog"
	"time"

	"match-embed/internal/cache"
	"match-embed/internal/embeddings"
	"match-embed/internal/metrics"
)

// StatusSuccess is the status value of every successful response.
const StatusSuccess = "success"

// Response is the predict_match reply shared by every transport.
type Response struct {
	Status          string              `json:"status" yaml:"status"`
	EmbeddingVector embeddings.Vector   `json:"embedding_vector" yaml:"embedding_vector"`
	Strategy        embeddings.Strategy `json:"strategy" yaml:"strategy"`
	Dimensions      int                 `json:"dimensions" yaml:"dimensions"`
	Cached          bool                `json:"cached" yaml:"cached"`
}

// Service wraps the engine with caching, metrics and logging.
type Service struct {
	engine   *embeddings.Engine
	cache    cache.Cache
	metrics  *metrics.Metrics
	log      *slog.Logger
	cacheTTL time.Duration
}

// New builds a Service. A nil cache disables caching and nil metrics
// disables instrumentation.
func New(engine *embeddings.Engine, c cache.Cache, m *metrics.Metrics, log *slog.Logger, cacheTTL time.Duration) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if m != nil {
		m.SetStrategy(engine.Strategy().String())
	}
	return &Service{engine: engine, cache: c, metrics: m, log: log, cacheTTL: cacheTTL}
}

// Strategy reports the engine's resolved strategy.
func (s *Service) Strategy() embeddings.Strategy {
	return s.engine.Strategy()
}

// Dimensions reports the engine's text and image widths.
func (s *Service) Dimensions() (int, int) {
	return s.engine.Dimensions()
}

// Predict embeds description and optional image bytes. transport labels
// the metrics series ("http", "nats", "cli").
func (s *Service) Predict(ctx context.Context, transport, description string, image []byte) (Response, error) {
	start := time.Now()
	strategy := s.engine.Strategy()
	key := cache.GenerateCacheKey(s.engine.Fingerprint(), description, image)
	textDim, imageDim := s.engine.Dimensions()

	if cached, err := s.cache.GetEmbedding(ctx, key); err != nil {
		s.log.Warn("cache lookup failed", "err", err)
	} else if cached != nil && !cached.Matches(strategy.String(), textDim, imageDim, len(image) > 0) {
		s.log.Warn("discarding cached embedding with unexpected shape",
			"strategy", cached.Strategy,
			"text_dim", cached.TextDim,
			"image_dim", cached.ImageDim,
		)
		s.observeCache(false)
	} else if cached != nil {
		s.observeCache(true)
		return Response{
			Status:          StatusSuccess,
			EmbeddingVector: cached.Vector,
			Strategy:        strategy,
			Dimensions:      len(cached.Vector),
			Cached:          true,
		}, nil
	} else {
		s.observeCache(false)
	}

	res, err := s.engine.Embed(ctx, description, image)
	if s.metrics != nil {
		s.metrics.ObserveEmbedding(strategy.String(), transport, len(image) > 0, err, time.Since(start))
	}
	if err != nil {
		return Response{}, err
	}

	if err := s.cache.SetEmbedding(ctx, key, &cache.Entry{
		Vector:   res.Vector,
		Strategy: strategy.String(),
		TextDim:  res.TextDim,
		ImageDim: res.ImageDim,
	}, s.cacheTTL); err != nil {
		// Log cache write failure but don't fail the request
		s.log.Warn("failed to cache embedding", "err", err)
	}

	s.log.Debug("embedding generated",
		"strategy", strategy,
		"transport", transport,
		"text_dim", res.TextDim,
		"image_dim", res.ImageDim,
	)
	return Response{
		Status:          StatusSuccess,
		EmbeddingVector: res.Vector,
		Strategy:        strategy,
		Dimensions:      len(res.Vector),
	}, nil
}

func (s *Service) observeCache(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCache(hit)
	}
}
