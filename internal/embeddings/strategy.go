package embeddings

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"match-embed/internal/imaging"
)

// Strategy names the code path that services every request of a process.
type Strategy int

const (
	StrategyFallback Strategy = iota
	StrategyPrimary
)

func (s Strategy) String() string {
	switch s {
	case StrategyPrimary:
		return "primary"
	default:
		return "fallback"
	}
}

// MarshalText renders the strategy by name in JSON and YAML output.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a strategy name.
func (s *Strategy) UnmarshalText(b []byte) error {
	switch string(b) {
	case "primary":
		*s = StrategyPrimary
	case "fallback":
		*s = StrategyFallback
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, b)
	}
	return nil
}

// Loader brings up the primary model. It is called at most once.
type Loader func(ctx context.Context) (Model, error)

// Result is one fused embedding and the path that produced it.
type Result struct {
	Vector   Vector
	Strategy Strategy
	TextDim  int
	ImageDim int
}

// Engine dispatches requests to the strategy chosen at construction.
// It has no mutable state and is safe for concurrent use.
type Engine struct {
	strategy Strategy
	model    Model
	fallback *FallbackEncoder
	textDim  int
	imageDim int
	modelID  string
}

// fallbackModelID identifies the deterministic encoder in fingerprints.
const fallbackModelID = "sha256"

// SelectStrategy attempts load once. A successful load fixes the engine on
// the primary model; any error, or a nil load, fixes it on the fallback
// encoder for the lifetime of the engine.
func SelectStrategy(ctx context.Context, load Loader, fallback *FallbackEncoder, log *slog.Logger) (*Engine, error) {
	if fallback == nil {
		return nil, fmt.Errorf("%w: fallback encoder required", ErrInvalidConfiguration)
	}
	if load != nil {
		model, err := load(ctx)
		if err == nil && model != nil {
			e := &Engine{strategy: StrategyPrimary, model: model, fallback: fallback}
			if d, ok := model.(interface{ Dimensions() (int, int) }); ok {
				e.textDim, e.imageDim = d.Dimensions()
			}
			if id, ok := model.(interface{ ID() string }); ok {
				e.modelID = id.ID()
			}
			log.Info("embedding strategy selected", "strategy", e.strategy, "text_dim", e.textDim, "image_dim", e.imageDim)
			return e, nil
		}
		if err == nil {
			err = ErrModelUnavailable
		}
		log.Warn("primary model unavailable, using deterministic fallback", "err", err)
	}
	e := NewFallbackEngine(fallback)
	log.Info("embedding strategy selected", "strategy", e.strategy, "text_dim", e.textDim, "image_dim", e.imageDim)
	return e, nil
}

// NewFallbackEngine returns an engine fixed on the fallback encoder.
func NewFallbackEngine(fallback *FallbackEncoder) *Engine {
	return &Engine{
		strategy: StrategyFallback,
		fallback: fallback,
		textDim:  fallback.Dim(),
		imageDim: fallback.Dim(),
		modelID:  fallbackModelID,
	}
}

// Strategy reports the resolved strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Dimensions reports the text and image widths; zero means unknown.
func (e *Engine) Dimensions() (int, int) {
	return e.textDim, e.imageDim
}

// Fingerprint identifies everything that shapes this engine's output:
// strategy, encoder identity and widths. Vectors from engines with different
// fingerprints must not be mixed.
func (e *Engine) Fingerprint() string {
	return fmt.Sprintf("%s:%s:%d:%d", e.strategy, e.modelID, e.textDim, e.imageDim)
}

// Embed produces the fused vector for text and optional image bytes.
func (e *Engine) Embed(ctx context.Context, text string, img []byte) (Result, error) {
	if e.strategy == StrategyPrimary {
		return e.embedPrimary(ctx, text, img)
	}
	return e.embedFallback(text, img), nil
}

func (e *Engine) embedFallback(text string, img []byte) Result {
	res := Result{Strategy: StrategyFallback}
	textVec := e.fallback.EncodeText(text)
	var imageVec Vector
	if len(img) > 0 {
		imageVec = e.fallback.EncodeImageBytes(img)
	}
	res.TextDim, res.ImageDim = len(textVec), len(imageVec)
	res.Vector = Fuse(textVec, imageVec)
	return res
}

func (e *Engine) embedPrimary(ctx context.Context, text string, img []byte) (Result, error) {
	res := Result{Strategy: StrategyPrimary}
	var decoded image.Image
	if len(img) > 0 {
		var err error
		decoded, _, err = imaging.Decode(img)
		if err != nil {
			return Result{}, errors.Join(ErrMalformedImage, err)
		}
	}

	var textVec, imageVec Vector
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		textVec, err = e.model.EncodeText(gctx, text)
		return err
	})
	if decoded != nil {
		g.Go(func() error {
			var err error
			imageVec, err = e.model.EncodeImage(gctx, decoded)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := e.checkWidths(textVec, imageVec, decoded != nil); err != nil {
		return Result{}, err
	}

	res.TextDim, res.ImageDim = len(textVec), len(imageVec)
	res.Vector = Fuse(textVec, imageVec)
	return res, nil
}

// checkWidths rejects encoder output that would break the fused length.
// Known widths must match exactly; a supplied image must yield values.
func (e *Engine) checkWidths(textVec, imageVec Vector, withImage bool) error {
	if e.textDim > 0 && len(textVec) != e.textDim {
		return fmt.Errorf("%w: text vector has %d values, want %d", ErrDimensionMismatch, len(textVec), e.textDim)
	}
	if !withImage {
		return nil
	}
	if len(imageVec) == 0 {
		return fmt.Errorf("%w: image encoder returned no values", ErrDimensionMismatch)
	}
	if e.imageDim > 0 && len(imageVec) != e.imageDim {
		return fmt.Errorf("%w: image vector has %d values, want %d", ErrDimensionMismatch, len(imageVec), e.imageDim)
	}
	return nil
}
