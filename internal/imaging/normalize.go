// Package imaging prepares uploaded images for the captioning model.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// DefaultMaxDimension is the longest side kept before captioning.
const DefaultMaxDimension = 1024

const jpegQuality = 90

var (
	// ErrEmptyImage is returned when Normalize is called without data.
	ErrEmptyImage = errors.New("imaging: image is empty")
	// ErrUnsupportedFormat is returned when no registered decoder accepts the data.
	ErrUnsupportedFormat = errors.New("imaging: unsupported image format")
)

// Normalize decodes any supported format, scales it down so neither side exceeds maxDim
// (aspect ratio kept, never upscaled), flattens transparency onto white, and encodes JPEG.
// maxDim <= 0 uses DefaultMaxDimension.
func Normalize(data []byte, maxDim int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}

		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := fitWithin(bounds.Dx(), bounds.Dy(), maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// fitWithin returns the thumbnail size for w x h bounded by maxDim on both sides.
func fitWithin(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}

	if w >= h {
		nh := max(1, h*maxDim/w)

		return maxDim, nh
	}

	nw := max(1, w*maxDim/h)

	return nw, maxDim
}
