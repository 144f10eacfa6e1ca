package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/haulware/stopscan/internal/preprocess"
)

// GosseractEngine runs recognition through Tesseract via gosseract. A
// fresh client is created per call; Tesseract clients are cheap and this
// keeps per-mode configuration from leaking between runs.
type GosseractEngine struct{}

// NewGosseractEngine constructs the Tesseract-backed engine.
func NewGosseractEngine() *GosseractEngine {
	return &GosseractEngine{}
}

// Recognize encodes the image as PNG, configures Tesseract for the
// capture mode and returns text plus mean word confidence.
func (e *GosseractEngine) Recognize(ctx context.Context, img image.Image, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	opts.report(0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Result{}, fmt.Errorf("ocr: encode image: %w", err)
	}
	opts.report(10)

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := e.configure(client, opts); err != nil {
		return Result{}, err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("ocr: set image: %w", err)
	}
	opts.report(30)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("ocr: recognize: %w", err)
	}
	opts.report(80)

	confidence := meanWordConfidence(client)
	opts.report(100)

	return Result{Text: text, Confidence: confidence}, nil
}

// Close implements Engine; the per-call client owns all native state.
func (e *GosseractEngine) Close() error { return nil }

// configure applies the language, page-segmentation mode and, for
// printed text only, the character whitelist.
func (e *GosseractEngine) configure(client *gosseract.Client, opts Options) error {
	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return fmt.Errorf("ocr: set language %q: %w", lang, err)
	}

	psm := gosseract.PSM_AUTO
	if opts.Mode == preprocess.ModePrinted {
		psm = gosseract.PSM_SINGLE_BLOCK
	}
	if err := client.SetPageSegMode(psm); err != nil {
		return fmt.Errorf("ocr: set page segmentation mode: %w", err)
	}

	if opts.Mode == preprocess.ModePrinted {
		if err := client.SetWhitelist(printedWhitelist); err != nil {
			return fmt.Errorf("ocr: set whitelist: %w", err)
		}
	}
	return nil
}

// meanWordConfidence averages per-word confidences. Tesseract reports
// them in percent already; an image with no words scores zero.
func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}
