package preprocess

import "github.com/haulware/stopscan/internal/raster"

const (
	// adaptiveWindow is the side length of the local-mean neighborhood.
	adaptiveWindow = 15
	// adaptiveBias is subtracted from the local mean before comparing;
	// it keeps faint strokes from flipping to white.
	adaptiveBias = 10
	// globalCutoff is the fixed threshold used for printed text.
	globalCutoff = 128
)

// adaptiveThreshold binarizes the buffer by comparing each pixel against
// the mean of its window x window neighborhood, clamped at the image
// boundary. A pixel becomes white when its intensity exceeds
// (local mean - bias), otherwise black. This handles uneven lighting far
// better than a single global cutoff, which matters for phone photos of
// handwritten sheets.
func adaptiveThreshold(buf *raster.Buffer, window, bias int) *raster.Buffer {
	out := raster.New(buf.Width, buf.Height)
	half := window / 2

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			sum, count := 0, 0
			for dy := -half; dy <= half; dy++ {
				ny := y + dy
				if ny < 0 || ny >= buf.Height {
					continue
				}
				for dx := -half; dx <= half; dx++ {
					nx := x + dx
					if nx < 0 || nx >= buf.Width {
						continue
					}
					sum += int(buf.Red(nx, ny))
					count++
				}
			}
			mean := sum / count
			if int(buf.Red(x, y)) > mean-bias {
				out.SetGray(x, y, 255)
			} else {
				out.SetGray(x, y, 0)
			}
		}
	}
	return out
}

// globalThreshold binarizes the buffer in place against a fixed cutoff.
func globalThreshold(buf *raster.Buffer, cutoff int) {
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			if int(buf.Red(x, y)) > cutoff {
				buf.SetGray(x, y, 255)
			} else {
				buf.SetGray(x, y, 0)
			}
		}
	}
}
