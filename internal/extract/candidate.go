package extract

// Source records how a candidate obtained (or failed to obtain) its
// coordinates.
type Source string

const (
	// SourceDirectCoordinates means the coordinates were embedded in the
	// scanned text itself.
	SourceDirectCoordinates Source = "direct_coordinates"
	// SourceNeedsGeocoding marks a name-only candidate awaiting resolution.
	SourceNeedsGeocoding Source = "needs_geocoding"
	// SourceGeocoded means a provider (or the fuzzy cache) supplied the
	// coordinates.
	SourceGeocoded Source = "geocoded"
	// SourceFailedGeocoding marks a candidate every provider gave up on;
	// it is kept with nil coordinates so a dispatcher can still review it.
	SourceFailedGeocoding Source = "failed_geocoding"
)

// Candidate is one extracted delivery-stop location. Latitude and
// Longitude are either both set and in range, or both nil. Confidence is
// always within [0, 1].
type Candidate struct {
	Name         string   `json:"name" yaml:"name"`
	Latitude     *float64 `json:"latitude" yaml:"latitude"`
	Longitude    *float64 `json:"longitude" yaml:"longitude"`
	Source       Source   `json:"source" yaml:"source"`
	Confidence   float64  `json:"confidence" yaml:"confidence"`
	OriginalText string   `json:"original_text" yaml:"original_text"`
}

// HasCoordinates reports whether both coordinates are present.
func (c *Candidate) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// SetCoordinates fills in both coordinates.
func (c *Candidate) SetCoordinates(lat, lng float64) {
	c.Latitude = &lat
	c.Longitude = &lng
}

// InRange reports whether a coordinate pair lies within the valid
// latitude/longitude ranges.
func InRange(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
