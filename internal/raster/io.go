package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Register decoders for the common upload formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

// MaxProcessingWidth bounds the working width of the preprocessing stage.
// Images wider than this are downscaled (aspect-ratio preserving) before
// any filter runs.
const MaxProcessingWidth = 2000

// MaxUploadBytes is the largest image payload accepted for decoding.
const MaxUploadBytes = 25 * 1024 * 1024

var (
	// ErrEmptyInput indicates a zero-length image payload.
	ErrEmptyInput = errors.New("raster: empty image data")

	// ErrTooLarge indicates an image payload above MaxUploadBytes.
	ErrTooLarge = errors.New("raster: image data exceeds size limit")
)

// Decode parses encoded image bytes (PNG, JPEG, GIF, BMP, TIFF or WebP)
// into a Buffer. A positive maxWidth downscales wider images before any
// filter sees them; zero disables downscaling.
func Decode(data []byte, maxWidth int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("raster: decode image: %w", err)
	}

	return FromImage(Downscale(img, maxWidth)), nil
}

// Downscale resizes img to maxWidth if it is wider, preserving aspect
// ratio. Smaller images pass through untouched; upscaling would only
// invent pixels.
func Downscale(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}
