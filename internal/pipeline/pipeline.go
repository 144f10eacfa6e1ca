// Package pipeline sequences the image-to-location extraction flow:
// preprocess -> OCR -> normalize -> extract -> geocode -> validate. The
// pipeline is single-flow per image; only the batch geocoding entry
// point in the geocode package fans out.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/haulware/stopscan/internal/extract"
	"github.com/haulware/stopscan/internal/geocode"
	"github.com/haulware/stopscan/internal/ocr"
	"github.com/haulware/stopscan/internal/preprocess"
	"github.com/haulware/stopscan/internal/raster"
	"github.com/haulware/stopscan/internal/textnorm"
)

// defaultResolveDelay separates consecutive geocoding lookups within one
// run. A deliberate throttle for provider rate limits, not a bug.
const defaultResolveDelay = 150 * time.Millisecond

// Pipeline drives one image through the full extraction flow. Safe for
// sequential reuse across images; the geocoding cache persists between
// runs.
type Pipeline struct {
	engine       ocr.Engine
	resolver     *geocode.Resolver
	preOpts      preprocess.Options
	ocrOpts      ocr.Options
	geocodeOpts  geocode.Options
	geocoding    bool
	resolveDelay time.Duration
	progress     ProgressFunc
	logger       *slog.Logger
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	p Pipeline
}

// NewBuilder creates a builder with defaults: auto mode, all
// preprocessing stages on, geocoding enabled.
func NewBuilder() *Builder {
	return &Builder{p: Pipeline{
		preOpts:      preprocess.DefaultOptions(),
		ocrOpts:      ocr.DefaultOptions(),
		geocodeOpts:  geocode.DefaultOptions(),
		geocoding:    true,
		resolveDelay: defaultResolveDelay,
		logger:       slog.Default(),
	}}
}

// WithEngine sets the OCR collaborator. Required.
func (b *Builder) WithEngine(e ocr.Engine) *Builder {
	b.p.engine = e
	return b
}

// WithResolver sets the geocoding resolver. Required unless geocoding is
// disabled.
func (b *Builder) WithResolver(r *geocode.Resolver) *Builder {
	b.p.resolver = r
	return b
}

// WithPreprocessing overrides the preprocessing options.
func (b *Builder) WithPreprocessing(opts preprocess.Options) *Builder {
	b.p.preOpts = opts
	b.p.ocrOpts.Mode = opts.Mode
	return b
}

// WithLanguage sets the OCR language code.
func (b *Builder) WithLanguage(lang string) *Builder {
	if lang != "" {
		b.p.ocrOpts.Language = lang
	}
	return b
}

// WithGeocoding toggles name resolution. When off, name-only candidates
// stay marked as needing geocoding.
func (b *Builder) WithGeocoding(enabled bool) *Builder {
	b.p.geocoding = enabled
	return b
}

// WithGeocodeOptions overrides the forward-geocoding query options.
func (b *Builder) WithGeocodeOptions(opts geocode.Options) *Builder {
	b.p.geocodeOpts = opts
	return b
}

// WithResolveDelay overrides the inter-name geocoding delay.
func (b *Builder) WithResolveDelay(d time.Duration) *Builder {
	if d >= 0 {
		b.p.resolveDelay = d
	}
	return b
}

// WithProgress sets the progress callback.
func (b *Builder) WithProgress(fn ProgressFunc) *Builder {
	b.p.progress = fn
	return b
}

// WithLogger sets the structured logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.p.logger = l
	}
	return b
}

// Build validates the configuration and returns the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.p.engine == nil {
		return nil, fmt.Errorf("pipeline: OCR engine is required")
	}
	if b.p.geocoding && b.p.resolver == nil {
		return nil, fmt.Errorf("pipeline: resolver is required when geocoding is enabled")
	}
	p := b.p
	return &p, nil
}

// Run processes one encoded image and returns the validated candidates
// plus a summary. The only fatal mid-pipeline failure is OCR: without
// text there is nothing to salvage. Geocoding failures degrade per
// candidate instead of aborting.
func (p *Pipeline) Run(ctx context.Context, imageData []byte) (*Result, error) {
	tracker := newProgressTracker(p.progress)

	maxWidth := 0
	if p.preOpts.NormalizeSize {
		maxWidth = raster.MaxProcessingWidth
	}
	buf, err := raster.Decode(imageData, maxWidth)
	if err != nil {
		return nil, err
	}

	processed := preprocess.Run(buf, p.preOpts)
	tracker.report(progressPreprocessDone, "preprocess")

	ocrOpts := p.ocrOpts
	ocrOpts.Progress = func(percent int) {
		tracker.report(ocrSpan(percent), "ocr")
	}
	recognized, err := p.engine.Recognize(ctx, processed.ToImage(), ocrOpts)
	if err != nil {
		return nil, fmt.Errorf("pipeline: ocr failed: %w", err)
	}
	tracker.report(progressOCRDone, "ocr")

	candidates := p.extractLines(recognized.Text)
	tracker.report(progressExtractDone, "extract")

	if p.geocoding {
		if err := p.resolveCandidates(ctx, candidates, tracker); err != nil {
			return nil, err
		}
	}

	final := Validate(candidates, recognized.Confidence)
	tracker.report(progressComplete, "done")

	result := newResult(final, recognized.Confidence)
	p.logger.Info("extraction run complete",
		"candidates", len(final),
		"ocr_confidence", recognized.Confidence,
		"summary", result.Summary.String())
	return result, nil
}

// extractLines normalizes each OCR output line and collects location
// candidates. Lines shorter than two characters after normalization are
// dropped; a line yielding no candidates is not an error.
func (p *Pipeline) extractLines(text string) []extract.Candidate {
	var candidates []extract.Candidate
	for _, line := range strings.Split(text, "\n") {
		normalized := textnorm.Normalize(line)
		if len(normalized) < 2 {
			continue
		}
		candidates = append(candidates, extract.Extract(normalized)...)
	}
	return candidates
}

// resolveCandidates geocodes the name-only candidates sequentially, one
// name at a time with a fixed delay between lookups. A candidate whose
// resolution fails everywhere is kept with nil coordinates and marked
// failed so the caller can still review it.
func (p *Pipeline) resolveCandidates(ctx context.Context, candidates []extract.Candidate, tracker *progressTracker) error {
	pending := 0
	for i := range candidates {
		if candidates[i].Source == extract.SourceNeedsGeocoding {
			pending++
		}
	}
	if pending == 0 {
		return nil
	}

	done := 0
	for i := range candidates {
		c := &candidates[i]
		if c.Source != extract.SourceNeedsGeocoding {
			continue
		}
		if done > 0 {
			if err := sleepCtx(ctx, p.resolveDelay); err != nil {
				return err
			}
		}

		results, err := p.resolver.Resolve(ctx, c.Name, p.geocodeOpts)
		switch {
		case err == nil && len(results) > 0:
			best := results[0]
			c.SetCoordinates(best.Latitude, best.Longitude)
			c.Source = extract.SourceGeocoded
			c.Confidence = best.Confidence
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			p.logger.Warn("geocoding failed", "name", c.Name, "error", err)
			c.Source = extract.SourceFailedGeocoding
		}

		done++
		span := progressComplete - progressExtractDone
		tracker.report(progressExtractDone+done*span/pending, "geocode")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
