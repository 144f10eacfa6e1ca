// Package preprocess turns a photographed or scanned delivery sheet into a
// binarized raster that OCR engines handle well. The filter chain is
// denoise -> contrast stretch -> grayscale -> threshold -> morphological
// cleanup, with every stage independently toggleable via Options.
package preprocess

import (
	"sort"

	"github.com/haulware/stopscan/internal/raster"
)

// Run applies the configured filter chain to src and returns a new,
// binarized buffer. The caller's buffer is never written to; all filters
// operate on an internal working copy. A zero-area buffer is returned
// unmodified rather than treated as an error.
func Run(src *raster.Buffer, opts Options) *raster.Buffer {
	if src.Empty() {
		return src
	}

	buf := src.Clone()

	if opts.Denoise {
		buf = medianFilter(buf)
	}
	if opts.EnhanceContrast {
		stretchContrast(buf)
	}
	toGrayscale(buf)
	if opts.adaptiveThreshold() {
		buf = adaptiveThreshold(buf, adaptiveWindow, adaptiveBias)
	} else {
		globalThreshold(buf, globalCutoff)
	}
	if opts.SharpenText {
		buf = Open(buf, opts.kernelSize())
		buf = Close(buf, opts.kernelSize())
	}

	return buf
}

// medianFilter replaces each interior pixel with the median of its 3x3
// neighborhood on the red channel. Edge rows and columns are copied
// through untouched; a one-pixel border is cheaper to skip than to clamp
// and contributes nothing to recognition.
func medianFilter(buf *raster.Buffer) *raster.Buffer {
	out := buf.Clone()
	if buf.Width < 3 || buf.Height < 3 {
		return out
	}

	var window [9]uint8
	for y := 1; y < buf.Height-1; y++ {
		for x := 1; x < buf.Width-1; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[n] = buf.Red(x+dx, y+dy)
					n++
				}
			}
			out.SetGray(x, y, median9(window))
		}
	}
	return out
}

// median9 returns the median of exactly nine samples.
func median9(w [9]uint8) uint8 {
	s := w[:]
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s[4]
}

// stretchContrast performs a percentile histogram stretch on the red
// channel: the intensities below which 1% of pixels fall and above which
// 1% fall are remapped linearly onto [0, 255]. A flat image (min == max)
// is left alone.
func stretchContrast(buf *raster.Buffer) {
	total := buf.Width * buf.Height
	if total == 0 {
		return
	}

	var hist [256]int
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			hist[buf.Red(x, y)]++
		}
	}

	cutoff := total / 100
	minVal, maxVal := percentileBounds(hist, cutoff)
	if maxVal <= minVal {
		return
	}

	scale := 255.0 / float64(maxVal-minVal)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			i := buf.Offset(x, y)
			for c := range 3 {
				v := float64(int(buf.Pix[i+c])-minVal) * scale
				buf.Pix[i+c] = clampByte(v)
			}
		}
	}
}

// percentileBounds walks the histogram from both ends until the given
// number of pixels has been passed.
func percentileBounds(hist [256]int, cutoff int) (minVal, maxVal int) {
	count := 0
	for v := range 256 {
		count += hist[v]
		if count > cutoff {
			minVal = v
			break
		}
	}
	count = 0
	maxVal = 255
	for v := 255; v >= 0; v-- {
		count += hist[v]
		if count > cutoff {
			maxVal = v
			break
		}
	}
	return minVal, maxVal
}

// toGrayscale converts the buffer in place using the perceptual luma
// weights (ITU-R BT.709).
func toGrayscale(buf *raster.Buffer) {
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			i := buf.Offset(x, y)
			luma := 0.2126*float64(buf.Pix[i]) +
				0.7152*float64(buf.Pix[i+1]) +
				0.0722*float64(buf.Pix[i+2])
			buf.SetGray(x, y, clampByte(luma))
		}
	}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
