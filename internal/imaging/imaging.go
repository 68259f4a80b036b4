package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultSize is the square input side expected by MobileNet-style models.
const DefaultSize = 224

// ErrEmpty is returned by Decode for zero-length input.
var ErrEmpty = errors.New("empty image")

// Decode parses JPEG, PNG, GIF or WebP bytes held in memory.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Resize scales img to a size x size RGBA image with Catmull-Rom resampling.
// The aspect ratio is not preserved.
func Resize(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Tensor resizes img and flattens it to row-major HWC float32 values with
// each channel scaled from [0, 255] to [-1, 1]. Alpha is dropped.
func Tensor(img image.Image, size int) []float32 {
	if size <= 0 {
		size = DefaultSize
	}
	rgba := Resize(img, size)
	out := make([]float32, 0, size*size*3)
	for y := 0; y < size; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+size*4]
		for x := 0; x < size; x++ {
			px := row[x*4 : x*4+3]
			for _, c := range px {
				out = append(out, float32(c)/127.5-1)
			}
		}
	}
	return out
}
