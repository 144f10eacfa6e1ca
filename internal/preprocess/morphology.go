package preprocess

import "github.com/haulware/stopscan/internal/raster"

// Binary morphology over the red channel of a thresholded buffer.
// Opening (erode then dilate) removes isolated noise specks; closing
// (dilate then erode) fills small gaps inside character strokes.
// Opening followed by closing is idempotent on an already-clean image.

// Open erodes then dilates with a size x size structuring element.
func Open(buf *raster.Buffer, size int) *raster.Buffer {
	return Dilate(Erode(buf, size), size)
}

// Close dilates then erodes with a size x size structuring element.
func Close(buf *raster.Buffer, size int) *raster.Buffer {
	return Erode(Dilate(buf, size), size)
}

// Erode sets each pixel to the minimum red value inside its kernel
// neighborhood. Out-of-bounds kernel positions are ignored.
func Erode(buf *raster.Buffer, size int) *raster.Buffer {
	return morph(buf, size, func(best, v uint8) bool { return v < best })
}

// Dilate sets each pixel to the maximum red value inside its kernel
// neighborhood. Out-of-bounds kernel positions are ignored.
func Dilate(buf *raster.Buffer, size int) *raster.Buffer {
	return morph(buf, size, func(best, v uint8) bool { return v > best })
}

func morph(buf *raster.Buffer, size int, better func(best, v uint8) bool) *raster.Buffer {
	if buf.Empty() || size <= 1 {
		return buf
	}

	out := raster.New(buf.Width, buf.Height)
	half := size / 2

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			best := buf.Red(x, y)
			for dy := -half; dy < size-half; dy++ {
				ny := y + dy
				if ny < 0 || ny >= buf.Height {
					continue
				}
				for dx := -half; dx < size-half; dx++ {
					nx := x + dx
					if nx < 0 || nx >= buf.Width {
						continue
					}
					if v := buf.Red(nx, ny); better(best, v) {
						best = v
					}
				}
			}
			out.SetGray(x, y, best)
		}
	}
	return out
}
