package embeddings

import "fmt"

// DefaultFallbackDim is the per-modality width used when none is configured.
const DefaultFallbackDim = 128

// EmbedFallback derives a pseudo-embedding of length dim from data.
// Each digest byte b maps to b/255, and the resulting base sequence is tiled
// and truncated to dim, so a shorter result is always a prefix of a longer one.
func EmbedFallback(data []byte, dim int) (Vector, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfiguration, dim)
	}
	digest := HashBytes(data)

	var base [DigestSize]float32
	for i, b := range digest {
		base[i] = float32(b) / 255.0
	}

	// ceil(dim/w) copies of the base sequence, then truncate.
	repeats := (dim + DigestSize - 1) / DigestSize
	vec := make(Vector, 0, repeats*DigestSize)
	for i := 0; i < repeats; i++ {
		vec = append(vec, base[:]...)
	}
	return vec[:dim], nil
}

// FallbackEncoder produces deterministic vectors for text and image bytes
// using one shared routine and one width.
type FallbackEncoder struct {
	dim int
}

// NewFallbackEncoder returns an encoder emitting dim-wide vectors per modality.
func NewFallbackEncoder(dim int) (*FallbackEncoder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: fallback dimension must be positive, got %d", ErrInvalidConfiguration, dim)
	}
	return &FallbackEncoder{dim: dim}, nil
}

// Dim returns the per-modality width.
func (e *FallbackEncoder) Dim() int {
	return e.dim
}

// EncodeText hashes the UTF-8 bytes of text.
func (e *FallbackEncoder) EncodeText(text string) Vector {
	vec, _ := EmbedFallback([]byte(text), e.dim)
	return vec
}

// EncodeImageBytes hashes raw image bytes without decoding them.
func (e *FallbackEncoder) EncodeImageBytes(data []byte) Vector {
	vec, _ := EmbedFallback(data, e.dim)
	return vec
}
