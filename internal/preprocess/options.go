package preprocess

import "fmt"

// Mode selects the threshold strategy and morphological kernel size.
type Mode string

const (
	// ModeAuto uses adaptive thresholding with the printed-text kernel.
	ModeAuto Mode = "auto"
	// ModePrinted uses a global threshold, tuned for clean printed text.
	ModePrinted Mode = "printed"
	// ModeHandwritten uses adaptive thresholding with a smaller kernel to
	// preserve thin pen strokes.
	ModeHandwritten Mode = "handwritten"
)

// ParseMode converts a string into a Mode, defaulting empty input to auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, "":
		return ModeAuto, nil
	case ModePrinted:
		return ModePrinted, nil
	case ModeHandwritten:
		return ModeHandwritten, nil
	}
	return "", fmt.Errorf("preprocess: unknown mode %q", s)
}

// Options holds the independently toggleable preprocessing stages for one
// pipeline run. The struct is treated as immutable once a run starts.
type Options struct {
	Mode            Mode
	Denoise         bool // 3x3 median filter
	EnhanceContrast bool // percentile histogram stretch
	SharpenText     bool // morphological opening + closing
	NormalizeSize   bool // downscale wide images before filtering
}

// DefaultOptions enables every stage in auto mode.
func DefaultOptions() Options {
	return Options{
		Mode:            ModeAuto,
		Denoise:         true,
		EnhanceContrast: true,
		SharpenText:     true,
		NormalizeSize:   true,
	}
}

// kernelSize returns the structuring-element size for morphological
// cleanup: handwriting uses 2x2 to keep thin strokes intact.
func (o Options) kernelSize() int {
	if o.Mode == ModeHandwritten {
		return 2
	}
	return 3
}

// adaptiveThreshold reports whether the per-pixel local-mean threshold
// applies instead of the global cutoff.
func (o Options) adaptiveThreshold() bool {
	return o.Mode != ModePrinted
}
