// Package ocr wraps the text-recognition engine behind a small
// interface. Recognition itself is an external collaborator: this
// package configures it per capture mode and normalizes its output into
// text plus a 0-100 confidence score.
package ocr

import (
	"context"
	"image"

	"github.com/haulware/stopscan/internal/preprocess"
)

// Result is the raw engine output for one image.
type Result struct {
	// Text is the raw multi-line recognition output.
	Text string
	// Confidence is the engine's overall confidence in percent (0-100).
	Confidence float64
}

// ProgressFunc receives coarse recognition progress in percent. Values
// are non-decreasing within one Recognize call.
type ProgressFunc func(percent int)

// Options configures one recognition run.
type Options struct {
	// Language is the engine language code ("eng" by default).
	Language string
	// Mode mirrors the preprocessing capture mode and selects page
	// segmentation and whitelist behavior.
	Mode preprocess.Mode
	// Progress, when set, receives recognition progress events.
	Progress ProgressFunc
}

// DefaultOptions returns engine options for auto-mode English input.
func DefaultOptions() Options {
	return Options{Language: "eng", Mode: preprocess.ModeAuto}
}

// Engine is the recognition collaborator. Implementations must be safe
// for sequential reuse; they need not be safe for concurrent use.
type Engine interface {
	// Recognize runs recognition over a preprocessed image.
	Recognize(ctx context.Context, img image.Image, opts Options) (Result, error)

	// Close releases engine resources.
	Close() error
}

// printedWhitelist constrains recognition for clean printed text. It is
// deliberately NOT applied for handwritten or auto modes: whitelisting
// measurably hurts handwriting accuracy.
const printedWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789,.- "

// report invokes the progress callback if one is set.
func (o Options) report(percent int) {
	if o.Progress != nil {
		o.Progress(percent)
	}
}
