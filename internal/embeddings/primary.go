package embeddings

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/openai/openai-go/v3"
)

// PrimaryConfig locates the learned encoders.
type PrimaryConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageURL   string
	ImageModel string
	ImageSize  int
	Timeout    time.Duration
}

// PrimaryModel pairs a text encoder with an image encoder.
type PrimaryModel struct {
	text     TextEncoder
	image    ImageEncoder
	textDim  int
	imageDim int
	id       string
}

// NewPrimaryModel wraps already-initialized encoders with known output widths.
func NewPrimaryModel(text TextEncoder, img ImageEncoder, textDim, imageDim int) *PrimaryModel {
	return &PrimaryModel{text: text, image: img, textDim: textDim, imageDim: imageDim}
}

func (m *PrimaryModel) EncodeText(ctx context.Context, text string) (Vector, error) {
	return m.text.EncodeText(ctx, text)
}

func (m *PrimaryModel) EncodeImage(ctx context.Context, img image.Image) (Vector, error) {
	return m.image.EncodeImage(ctx, img)
}

// ID names the encoder pair, e.g. "text-embedding-3-small+mobilenet_v2".
func (m *PrimaryModel) ID() string {
	return m.id
}

// Dimensions returns the text and image widths observed at load time.
func (m *PrimaryModel) Dimensions() (int, int) {
	return m.textDim, m.imageDim
}

// LoadPrimaryModel builds both encoders and probes each once. Every failure
// is reported as ErrModelUnavailable.
func LoadPrimaryModel(ctx context.Context, cfg PrimaryConfig) (*PrimaryModel, error) {
	textEnc, err := NewOpenAITextEncoder(cfg.APIKey, cfg.BaseURL, openai.EmbeddingModel(cfg.TextModel), cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: text encoder: %v", ErrModelUnavailable, err)
	}
	imageEnc, err := NewInferenceImageEncoder(cfg.ImageURL, cfg.ImageModel, cfg.ImageSize, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: image encoder: %v", ErrModelUnavailable, err)
	}

	textDim, err := textEnc.Probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: text probe: %v", ErrModelUnavailable, err)
	}
	imageDim, err := imageEnc.Probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: image probe: %v", ErrModelUnavailable, err)
	}
	m := NewPrimaryModel(textEnc, imageEnc, textDim, imageDim)
	m.id = string(textEnc.model) + "+" + cfg.ImageModel
	return m, nil
}
