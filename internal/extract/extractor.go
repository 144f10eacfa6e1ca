// Package extract scans normalized OCR lines for embedded coordinate
// pairs and, failing that, derives location-name candidates using a
// small likelihood heuristic. It deliberately stays at the regex level:
// true place-name disambiguation belongs to the geocoding providers.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// minCoordinateMagnitude rejects zero-adjacent matches: a parsed value
// this close to zero is far more likely a stray "0.0" artifact than a
// real stop in the Gulf of Guinea.
const minCoordinateMagnitude = 0.001

// coordinatePatterns are tried in order; the first match wins.
var coordinatePatterns = []*regexp.Regexp{
	// Decimal pair with arbitrary separators: "40.7128, -74.0060".
	regexp.MustCompile(`(-?\d{1,3}\.\d+)\s*[,;/|\s]\s*(-?\d{1,3}\.\d+)`),
	// Decimal degrees with hemisphere suffixes: "40.7128 N, 74.0060 W".
	regexp.MustCompile(`(\d{1,3}\.\d+)\s*([NSns])\s*[,;\s]\s*(\d{1,3}\.\d+)\s*([EWew])`),
	// Pair anchored at end of line with at least 4 decimals of precision.
	regexp.MustCompile(`(-?\d{1,3}\.\d{4,})[,\s]+(-?\d{1,3}\.\d{4,})\s*$`),
}

// segmentSplit separates multi-location lines.
var segmentSplit = regexp.MustCompile(`[,;|\n]`)

// nameShape accepts 3-50 characters of letters, spaces and hyphens.
var nameShape = regexp.MustCompile(`^[A-Za-z\s-]{3,50}$`)

// adminUnitHints matches tokens that frequently terminate place or
// administrative-unit names on delivery sheets.
var adminUnitHints = regexp.MustCompile(`(?i)\b(city|town|village|district|state|county|nagar|pura?|abad|ganj|colony|sector|street|road|market|chowk|bazaa?r)\b`)

// placeAdminShape matches a "Place, Region" pair, the most common way a
// stop is written out. Such lines stay one candidate; splitting them
// would geocode the region on its own.
var placeAdminShape = regexp.MustCompile(`^[A-Za-z][A-Za-z\s-]{1,48},\s*[A-Za-z][A-Za-z\s-]{1,48}$`)

const (
	confidenceStrongName  = 0.8
	confidenceGenericName = 0.6
)

// Extract derives location candidates from one normalized line. Direct
// coordinate pairs take precedence; otherwise the line is split into
// segments and each is tested with the location-likelihood heuristic. A
// line may legitimately yield zero candidates.
func Extract(line string) []Candidate {
	line = strings.TrimSpace(line)
	if len(line) < 2 {
		return nil
	}

	if c, ok := extractCoordinates(line); ok {
		return []Candidate{c}
	}
	return extractNames(line)
}

// extractCoordinates tries the coordinate patterns in priority order.
func extractCoordinates(line string) (Candidate, bool) {
	for i, re := range coordinatePatterns {
		loc := re.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		m := re.FindStringSubmatch(line)

		var lat, lng float64
		var err error
		if i == 1 {
			lat, lng, err = parseHemispherePair(m)
		} else {
			lat, lng, err = parseSignedPair(m[1], m[2])
		}
		if err != nil || !validPair(lat, lng) {
			continue
		}

		name := strings.Trim(strings.TrimSpace(line[:loc[0]]), ",.-")
		name = strings.TrimSpace(name)
		if name == "" {
			name = line
		}

		c := Candidate{
			Name:         name,
			Source:       SourceDirectCoordinates,
			Confidence:   confidenceStrongName,
			OriginalText: line,
		}
		c.SetCoordinates(lat, lng)
		return c, true
	}
	return Candidate{}, false
}

func parseSignedPair(latStr, lngStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

func parseHemispherePair(m []string) (float64, float64, error) {
	lat, lng, err := parseSignedPair(m[1], m[3])
	if err != nil {
		return 0, 0, err
	}
	if strings.EqualFold(m[2], "S") {
		lat = -lat
	}
	if strings.EqualFold(m[4], "W") {
		lng = -lng
	}
	return lat, lng, nil
}

func validPair(lat, lng float64) bool {
	if !InRange(lat, lng) {
		return false
	}
	return math.Abs(lat) > minCoordinateMagnitude && math.Abs(lng) > minCoordinateMagnitude
}

// extractNames keeps a "Place, Region" line whole, otherwise splits it
// into segments and keeps those that look like place names. When no
// individual segment qualifies, the whole line gets one more chance as a
// single candidate.
func extractNames(line string) []Candidate {
	if placeAdminShape.MatchString(line) {
		return []Candidate{{
			Name:         line,
			Source:       SourceNeedsGeocoding,
			Confidence:   confidenceStrongName,
			OriginalText: line,
		}}
	}

	var out []Candidate
	for _, seg := range segmentSplit.Split(line, -1) {
		seg = strings.TrimSpace(seg)
		if len(seg) <= 2 {
			continue
		}
		if conf, ok := nameLikelihood(seg); ok {
			out = append(out, Candidate{
				Name:         seg,
				Source:       SourceNeedsGeocoding,
				Confidence:   conf,
				OriginalText: line,
			})
		}
	}
	if out != nil {
		return out
	}

	if conf, ok := nameLikelihood(line); ok {
		out = append(out, Candidate{
			Name:         line,
			Source:       SourceNeedsGeocoding,
			Confidence:   conf,
			OriginalText: line,
		})
	}
	return out
}

// nameLikelihood scores how plausibly a segment names a place. Admin-unit
// hints score higher than the generic letters-and-spaces shape.
func nameLikelihood(seg string) (float64, bool) {
	if adminUnitHints.MatchString(seg) {
		return confidenceStrongName, true
	}
	if nameShape.MatchString(seg) {
		return confidenceGenericName, true
	}
	return 0, false
}
