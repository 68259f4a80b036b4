package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"match-embed/internal/imaging"
)

// InferenceImageEncoder posts preprocessed image tensors to an inference
// server that returns pooled convolutional features.
type InferenceImageEncoder struct {
	baseURL    string
	model      string
	size       int
	httpClient *http.Client
	dim        int
}

type imageEmbeddingRequest struct {
	Model string    `json:"model"`
	Shape []int     `json:"shape"`
	Input []float32 `json:"input"`
}

type imageEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewInferenceImageEncoder creates an image encoder for endpoint.
func NewInferenceImageEncoder(endpoint, model string, size int, timeout time.Duration) (*InferenceImageEncoder, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("inference: missing IMAGE_ENCODER_URL")
	}
	if size <= 0 {
		size = imaging.DefaultSize
	}
	if timeout <= 0 {
		timeout = defaultEmbeddingTimeout
	}
	return &InferenceImageEncoder{
		baseURL:    strings.TrimRight(endpoint, "/"),
		model:      model,
		size:       size,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Probe encodes a blank image and records the model's output width.
func (e *InferenceImageEncoder) Probe(ctx context.Context) (int, error) {
	blank := image.NewRGBA(image.Rect(0, 0, e.size, e.size))
	vec, err := e.call(ctx, blank)
	if err != nil {
		return 0, err
	}
	if len(vec) == 0 {
		return 0, fmt.Errorf("inference: empty probe embedding")
	}
	e.dim = len(vec)
	return e.dim, nil
}

// EncodeImage resizes, normalizes and embeds img.
func (e *InferenceImageEncoder) EncodeImage(ctx context.Context, img image.Image) (Vector, error) {
	vec, err := e.call(ctx, img)
	if err != nil {
		return nil, err
	}
	if e.dim > 0 && len(vec) != e.dim {
		return nil, fmt.Errorf("%w: image model returned %d values, want %d", ErrDimensionMismatch, len(vec), e.dim)
	}
	return vec, nil
}

func (e *InferenceImageEncoder) call(ctx context.Context, img image.Image) (Vector, error) {
	req := imageEmbeddingRequest{
		Model: e.model,
		Shape: []int{1, e.size, e.size, 3},
		Input: imaging.Tensor(img, e.size),
	}
	var parsed imageEmbeddingResponse
	if err := e.postJSON(ctx, e.baseURL+"/embeddings", req, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("inference: embeddings empty data")
	}
	return Vector(parsed.Data[0].Embedding), nil
}

func (e *InferenceImageEncoder) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d for %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
