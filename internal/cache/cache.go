package cache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"time"

	"match-embed/internal/embeddings"
)

// Cache stores fused embeddings keyed by their inputs.
type Cache interface {
	// GetEmbedding retrieves a cached embedding by key
	// Returns nil if not found
	GetEmbedding(ctx context.Context, key string) (*Entry, error)

	// SetEmbedding stores an embedding with TTL
	SetEmbedding(ctx context.Context, key string, entry *Entry, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Entry is a cached embedding response.
type Entry struct {
	Vector   embeddings.Vector `json:"vector"`
	Strategy string            `json:"strategy"`
	TextDim  int               `json:"text_dim"`
	ImageDim int               `json:"image_dim"`
}

// GenerateCacheKey derives a key from the engine fingerprint and request
// inputs. The fingerprint carries strategy, model and widths, so engines
// configured differently never share entries. Fields are length-prefixed
// so ("ab", "c") and ("a", "bc") never collide.
func GenerateCacheKey(fingerprint, text string, image []byte) string {
	buf := make([]byte, 0, len(fingerprint)+len(text)+len(image)+24)
	for _, field := range [][]byte{[]byte(fingerprint), []byte(text), image} {
		buf = binary.BigEndian.AppendUint64(buf, uint64(len(field)))
		buf = append(buf, field...)
	}
	digest := embeddings.HashBytes(buf)
	return hex.EncodeToString(digest[:])
}

// Matches reports whether e has the shape an engine with the given strategy
// and widths would produce for a request with or without an image. Zero
// widths are unknown and only the internal consistency of e is checked.
func (e *Entry) Matches(strategy string, textDim, imageDim int, withImage bool) bool {
	if e.Strategy != strategy || len(e.Vector) != e.TextDim+e.ImageDim || e.TextDim == 0 {
		return false
	}
	if withImage != (e.ImageDim > 0) {
		return false
	}
	if textDim > 0 && e.TextDim != textDim {
		return false
	}
	if withImage && imageDim > 0 && e.ImageDim != imageDim {
		return false
	}
	return true
}
