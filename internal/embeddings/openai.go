package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAITextEncoder calls an OpenAI-compatible embeddings API.
type OpenAITextEncoder struct {
	model   openai.EmbeddingModel
	client  *openai.Client
	timeout time.Duration
	dim     int
}

const defaultEmbeddingTimeout = 30 * time.Second

// NewOpenAITextEncoder creates a new text encoder. baseURL may be empty to
// target api.openai.com.
func NewOpenAITextEncoder(apiKey, baseURL string, model openai.EmbeddingModel, timeout time.Duration) (*OpenAITextEncoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	if timeout <= 0 {
		timeout = defaultEmbeddingTimeout
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	cli := openai.NewClient(opts...)
	return &OpenAITextEncoder{
		model:   model,
		client:  &cli,
		timeout: timeout,
	}, nil
}

// Probe embeds a fixed string and records the model's output width.
func (e *OpenAITextEncoder) Probe(ctx context.Context) (int, error) {
	vec, err := e.call(ctx, "lost item")
	if err != nil {
		return 0, err
	}
	if len(vec) == 0 {
		return 0, fmt.Errorf("openai: empty probe embedding")
	}
	e.dim = len(vec)
	return e.dim, nil
}

// EncodeText embeds text. The API rejects empty input, so an empty
// description maps to a zero vector of the probed width.
func (e *OpenAITextEncoder) EncodeText(ctx context.Context, text string) (Vector, error) {
	if e == nil || e.client == nil {
		return nil, fmt.Errorf("nil openai client")
	}
	if text == "" && e.dim > 0 {
		return make(Vector, e.dim), nil
	}
	vec, err := e.call(ctx, text)
	if err != nil {
		return nil, err
	}
	if e.dim > 0 && len(vec) != e.dim {
		return nil, fmt.Errorf("%w: text model returned %d values, want %d", ErrDimensionMismatch, len(vec), e.dim)
	}
	return vec, nil
}

func (e *OpenAITextEncoder) call(ctx context.Context, text string) (Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: no embedding data returned")
	}
	// Convert []float64 to []float32
	embedding := resp.Data[0].Embedding
	vec := make(Vector, len(embedding))
	for i, v := range embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
