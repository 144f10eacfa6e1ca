package raster

import (
	"image"
	"image/color"
	"image/draw"
)

// Buffer is an in-memory RGBA raster: row-major, origin top-left, four
// bytes per pixel (R, G, B, A). It is the working representation for all
// preprocessing filters. A Buffer belongs to a single pipeline run and
// must not be shared across concurrent runs.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed buffer of the given dimensions.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FromImage converts any image.Image into a Buffer.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return &Buffer{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    rgba.Pix,
	}
}

// Empty reports whether the buffer has zero area.
func (b *Buffer) Empty() bool {
	return b == nil || b.Width <= 0 || b.Height <= 0
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Offset returns the index of the first byte (red channel) of pixel (x, y).
// The caller is responsible for bounds.
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// At returns the RGBA color of pixel (x, y).
func (b *Buffer) At(x, y int) color.RGBA {
	i := b.Offset(x, y)
	return color.RGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// SetGray sets pixel (x, y) to the gray value v with full opacity.
func (b *Buffer) SetGray(x, y int, v uint8) {
	i := b.Offset(x, y)
	b.Pix[i] = v
	b.Pix[i+1] = v
	b.Pix[i+2] = v
	b.Pix[i+3] = 255
}

// Red returns the red-channel value of pixel (x, y). The preprocessing
// filters treat the red channel as the intensity channel once the image
// has been converted to grayscale.
func (b *Buffer) Red(x, y int) uint8 {
	return b.Pix[b.Offset(x, y)]
}

// ToImage converts the buffer back into an *image.RGBA, copying pixels so
// the buffer may keep being mutated afterwards.
func (b *Buffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}
