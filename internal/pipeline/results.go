package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/haulware/stopscan/internal/extract"
)

// Summary counts what one run produced, in the phrasing the UI layer
// surfaces to dispatchers.
type Summary struct {
	Extracted       int `json:"extracted" yaml:"extracted"`
	WithCoordinates int `json:"with_coordinates" yaml:"with_coordinates"`
	NeedGeocoding   int `json:"need_geocoding" yaml:"need_geocoding"`
	Failed          int `json:"failed_geocoding" yaml:"failed_geocoding"`
}

// String renders the human-readable summary line.
func (s Summary) String() string {
	return fmt.Sprintf("%d extracted, %d need geocoding", s.Extracted, s.NeedGeocoding+s.Failed)
}

// Result is the full output of one pipeline run.
type Result struct {
	Candidates    []extract.Candidate `json:"candidates" yaml:"candidates"`
	Summary       Summary             `json:"summary" yaml:"summary"`
	OCRConfidence float64             `json:"ocr_confidence" yaml:"ocr_confidence"`
}

func newResult(candidates []extract.Candidate, ocrConfidence float64) *Result {
	s := Summary{Extracted: len(candidates)}
	for _, c := range candidates {
		switch {
		case c.HasCoordinates():
			s.WithCoordinates++
		case c.Source == extract.SourceFailedGeocoding:
			s.Failed++
		default:
			s.NeedGeocoding++
		}
	}
	return &Result{
		Candidates:    candidates,
		Summary:       s,
		OCRConfidence: ocrConfidence,
	}
}

// Format renders the result as "text", "json" or "yaml".
func (r *Result) Format(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return r.formatText(), nil
	case "json":
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("pipeline: marshal json: %w", err)
		}
		return string(b), nil
	case "yaml":
		b, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("pipeline: marshal yaml: %w", err)
		}
		return string(b), nil
	}
	return "", fmt.Errorf("pipeline: unknown output format %q", format)
}

func (r *Result) formatText() string {
	var b strings.Builder
	for _, c := range r.Candidates {
		if c.HasCoordinates() {
			fmt.Fprintf(&b, "%s\t%.6f,%.6f\t%s\t%.2f\n",
				c.Name, *c.Latitude, *c.Longitude, c.Source, c.Confidence)
		} else {
			fmt.Fprintf(&b, "%s\t-\t%s\t%.2f\n", c.Name, c.Source, c.Confidence)
		}
	}
	b.WriteString(r.Summary.String())
	b.WriteByte('\n')
	return b.String()
}
