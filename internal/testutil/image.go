// Package testutil provides synthetic image fixtures for tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextImageConfig holds configuration for generated text images.
type TextImageConfig struct {
	Lines      []string
	Width      int
	Height     int
	Background color.Color
	Foreground color.Color
	NoiseLevel int // number of random salt-and-pepper pixels
}

// DefaultTextImageConfig returns a clean white 640x480 canvas.
func DefaultTextImageConfig() TextImageConfig {
	return TextImageConfig{
		Lines:      []string{"Sample Text"},
		Width:      640,
		Height:     480,
		Background: color.White,
		Foreground: color.Black,
	}
}

// GenerateTextImage renders the configured lines onto a canvas with the
// basicfont face, optionally sprinkling noise pixels for the denoise
// tests.
func GenerateTextImage(t *testing.T, cfg TextImageConfig) *image.RGBA {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cfg.Foreground},
		Face: face,
	}
	lineHeight := face.Metrics().Height.Ceil() + 4
	for i, line := range cfg.Lines {
		drawer.Dot = fixed.P(10, 20+i*lineHeight)
		drawer.DrawString(line)
	}

	if cfg.NoiseLevel > 0 {
		rng := rand.New(rand.NewSource(42))
		for range cfg.NoiseLevel {
			x := rng.Intn(cfg.Width)
			y := rng.Intn(cfg.Height)
			c := color.RGBA{A: 255}
			if rng.Intn(2) == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// EncodePNG serializes an image to PNG bytes.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// UniformImage returns a solid-color image.
func UniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}
