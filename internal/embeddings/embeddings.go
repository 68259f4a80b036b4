package embeddings

import (
	"context"
	"errors"
	"image"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

var (
	// ErrModelUnavailable is returned by model loaders that cannot bring up an encoder.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrInvalidConfiguration is returned for non-positive embedding dimensions.
	ErrInvalidConfiguration = errors.New("invalid embedding configuration")
	// ErrMalformedImage is returned when image bytes cannot be decoded for the primary model.
	ErrMalformedImage = errors.New("malformed image input")
	// ErrDimensionMismatch is returned when an encoder changes its output width.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// TextEncoder turns a description into a vector.
type TextEncoder interface {
	EncodeText(ctx context.Context, text string) (Vector, error)
}

// ImageEncoder turns a decoded image into a vector.
type ImageEncoder interface {
	EncodeImage(ctx context.Context, img image.Image) (Vector, error)
}

// Model is the primary, learned encoder pair.
type Model interface {
	TextEncoder
	ImageEncoder
}

// Fuse concatenates the text and image vectors, text first.
// A nil image vector yields the text vector unchanged.
func Fuse(text, img Vector) Vector {
	if img == nil {
		return text
	}
	out := make(Vector, 0, len(text)+len(img))
	out = append(out, text...)
	return append(out, img...)
}
