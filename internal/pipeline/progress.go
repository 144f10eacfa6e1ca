package pipeline

import "sync"

// ProgressFunc receives pipeline progress as a percentage plus the stage
// currently running. Reported values are non-decreasing within one run.
type ProgressFunc func(percent int, stage string)

// Pipeline stage boundaries on the 0-100 progress scale. OCR owns the
// widest band because it is the only long-running external operation.
const (
	progressPreprocessDone = 20
	progressOCRDone        = 70
	progressExtractDone    = 80
	progressComplete       = 100
)

// progressTracker clamps raw reports so the percentage a caller observes
// never moves backwards, whatever order the stages report in.
type progressTracker struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last int
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

func (t *progressTracker) report(percent int, stage string) {
	if t.fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if percent < t.last {
		percent = t.last
	}
	if percent > 100 {
		percent = 100
	}
	t.last = percent
	t.fn(percent, stage)
}

// ocrSpan maps the engine's own 0-100 progress into the OCR band of the
// pipeline scale.
func ocrSpan(enginePercent int) int {
	span := progressOCRDone - progressPreprocessDone
	return progressPreprocessDone + enginePercent*span/100
}
