package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		format  string
		wantErr bool
	}{
		{"png", encodePNG(t, 4, 3, color.White), "png", false},
		{"empty", nil, "", true},
		{"garbage", []byte("definitely not an image"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, format, err := Decode(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, 4, img.Bounds().Dx())
			assert.Equal(t, 3, img.Bounds().Dy())
		})
	}
}

func TestTensorShapeAndRange(t *testing.T) {
	img, _, err := Decode(encodePNG(t, 10, 20, color.RGBA{R: 255, G: 0, B: 128, A: 255}))
	require.NoError(t, err)

	out := Tensor(img, 8)
	require.Len(t, out, 8*8*3)
	for i, v := range out {
		if v < -1 || v > 1 {
			t.Fatalf("value %d out of range: %f", i, v)
		}
	}
	// Uniform input keeps channel values after resampling.
	assert.InDelta(t, 1.0, out[0], 0.01)
	assert.InDelta(t, -1.0, out[1], 0.01)
	assert.InDelta(t, 128/127.5-1, out[2], 0.01)
}

func TestTensorDefaultSize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.Len(t, Tensor(img, 0), DefaultSize*DefaultSize*3)
}
