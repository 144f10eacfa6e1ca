package pipeline

import (
	"github.com/haulware/stopscan/internal/extract"
	"github.com/haulware/stopscan/internal/geo"
)

// Validation thresholds.
const (
	minNameLength     = 3   // names of length <= 2 are noise
	minKeepConfidence = 0.3 // coordinate-less candidates must beat this
	maxDirectConf     = 0.95
	maxGeocodedConf   = 0.9
	directConfBonus   = 0.2
)

// Validate composes each candidate's final confidence from the OCR
// confidence and (for geocoded candidates) the provider confidence, then
// drops degenerate entries. Rejections are silent: they show up only in
// the output count. The returned slice satisfies the output invariants:
// names are non-empty, confidence lies in [0,1], and coordinates are
// either both present and in range or both nil.
func Validate(candidates []extract.Candidate, ocrConfidence float64) []extract.Candidate {
	ocrFrac := clamp01(ocrConfidence / 100)

	out := make([]extract.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Name) < minNameLength {
			continue
		}

		switch c.Source {
		case extract.SourceDirectCoordinates:
			c.Confidence = minFloat(maxDirectConf, ocrFrac+directConfBonus)
		case extract.SourceGeocoded:
			c.Confidence = minFloat(maxGeocodedConf, c.Confidence*ocrFrac)
		default:
			// Unresolved: keep reviewable but never confident.
			c.Confidence = maxFloat(minKeepConfidence, ocrFrac)
		}
		c.Confidence = clamp01(c.Confidence)

		if c.HasCoordinates() {
			if !geo.ValidCoordinates(*c.Latitude, *c.Longitude) || nearZero(*c.Latitude, *c.Longitude) {
				c.Latitude, c.Longitude = nil, nil
			}
		} else {
			c.Latitude, c.Longitude = nil, nil
		}

		if !c.HasCoordinates() && c.Confidence <= minKeepConfidence {
			continue
		}
		out = append(out, c)
	}
	return out
}

// nearZero flags the (0,0)-adjacent pairs that almost always come from
// parsing artifacts rather than a real stop.
func nearZero(lat, lng float64) bool {
	const eps = 0.001
	return lat >= -eps && lat <= eps && lng >= -eps && lng <= eps
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
