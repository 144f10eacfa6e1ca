package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOneCoordinate(t *testing.T, line string) Candidate {
	t.Helper()
	got := Extract(line)
	require.Len(t, got, 1)
	require.Equal(t, SourceDirectCoordinates, got[0].Source)
	require.True(t, got[0].HasCoordinates())
	return got[0]
}

func TestExtract_SignedCoordinatePair(t *testing.T) {
	c := requireOneCoordinate(t, "Warehouse 40.7128, -74.0060")
	assert.InDelta(t, 40.7128, *c.Latitude, 1e-9)
	assert.InDelta(t, -74.0060, *c.Longitude, 1e-9)
	assert.Equal(t, "Warehouse", c.Name)
}

func TestExtract_SeparatorVariants(t *testing.T) {
	for _, line := range []string{
		"19.0760, 72.8777",
		"19.0760; 72.8777",
		"19.0760 / 72.8777",
		"19.0760 | 72.8777",
		"19.0760 72.8777",
	} {
		c := requireOneCoordinate(t, line)
		assert.InDelta(t, 19.0760, *c.Latitude, 1e-9, line)
		assert.InDelta(t, 72.8777, *c.Longitude, 1e-9, line)
	}
}

func TestExtract_HemispherePair(t *testing.T) {
	c := requireOneCoordinate(t, "40.7128 N, 74.0060 W")
	assert.InDelta(t, 40.7128, *c.Latitude, 1e-9)
	assert.InDelta(t, -74.0060, *c.Longitude, 1e-9)

	c = requireOneCoordinate(t, "33.8688 S, 151.2093 E")
	assert.InDelta(t, -33.8688, *c.Latitude, 1e-9)
	assert.InDelta(t, 151.2093, *c.Longitude, 1e-9)
}

func TestExtract_CoordinateRangeBoundaries(t *testing.T) {
	c := requireOneCoordinate(t, "90.0, 180.0")
	assert.InDelta(t, 90.0, *c.Latitude, 1e-9)
	assert.InDelta(t, 180.0, *c.Longitude, 1e-9)

	// Out-of-range pairs are not coordinates; the line falls through to
	// name extraction and yields nothing useful here.
	for _, line := range []string{"90.0001, 10.0", "-90.0001, 10.0", "10.0, 180.0001", "10.0, -180.0001"} {
		for _, c := range Extract(line) {
			assert.NotEqual(t, SourceDirectCoordinates, c.Source, line)
		}
	}
}

func TestExtract_NearZeroRejected(t *testing.T) {
	for _, c := range Extract("0.0, 0.0") {
		assert.NotEqual(t, SourceDirectCoordinates, c.Source)
	}
	for _, c := range Extract("0.0005, 0.0007") {
		assert.NotEqual(t, SourceDirectCoordinates, c.Source)
	}
}

func TestExtract_CoordinatesTakePrecedenceOverNames(t *testing.T) {
	got := Extract("Mumbai Central, 19.0760, 72.8777")
	require.Len(t, got, 1)
	assert.Equal(t, SourceDirectCoordinates, got[0].Source)
	assert.Equal(t, "Mumbai Central", got[0].Name)
}

func TestExtract_PlaceAdminPairStaysWhole(t *testing.T) {
	got := Extract("Mumbai, Maharashtra")
	require.Len(t, got, 1)
	assert.Equal(t, "Mumbai, Maharashtra", got[0].Name)
	assert.Equal(t, SourceNeedsGeocoding, got[0].Source)
	assert.InDelta(t, 0.8, got[0].Confidence, 1e-9)
}

func TestExtract_SplitsMultiLocationLines(t *testing.T) {
	got := Extract("Andheri Market; Bandra Station; Dadar Chowk")
	require.Len(t, got, 3)
	assert.Equal(t, "Andheri Market", got[0].Name)
	assert.Equal(t, "Bandra Station", got[1].Name)
	assert.Equal(t, "Dadar Chowk", got[2].Name)
	for _, c := range got {
		assert.Equal(t, SourceNeedsGeocoding, c.Source)
	}
}

func TestExtract_AdminHintScoresHigher(t *testing.T) {
	hinted := Extract("Gandhi Nagar")
	require.Len(t, hinted, 1)
	assert.InDelta(t, 0.8, hinted[0].Confidence, 1e-9)

	generic := Extract("Riverdale")
	require.Len(t, generic, 1)
	assert.InDelta(t, 0.6, generic[0].Confidence, 1e-9)
}

func TestExtract_UselessLinesYieldNothing(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("x"))
	assert.Empty(t, Extract("1234 5678"))
}

func TestExtract_ShortSegmentsDropped(t *testing.T) {
	got := Extract("12, Mumbai Market")
	require.Len(t, got, 1)
	assert.Equal(t, "Mumbai Market", got[0].Name)
}

func TestExtract_OriginalTextPreserved(t *testing.T) {
	line := "Andheri Market; Bandra Station"
	for _, c := range Extract(line) {
		assert.Equal(t, line, c.OriginalText)
	}
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(0, 0))
	assert.True(t, InRange(-90, 180))
	assert.False(t, InRange(90.5, 0))
	assert.False(t, InRange(0, -180.5))
}
