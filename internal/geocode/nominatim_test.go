package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nominatimServer(t *testing.T, handler http.HandlerFunc) *NominatimProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNominatimProvider().WithBaseURL(srv.URL)
}

func TestNominatimSearch(t *testing.T) {
	var gotPath, gotQuery, gotLimit, gotCodes, gotAgent string
	p := nominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		gotCodes = r.URL.Query().Get("countrycodes")
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[
			{"display_name": "Mumbai, Maharashtra, India", "lat": "19.076", "lon": "72.8777", "importance": 0.8},
			{"display_name": "Mumbai Suburban, India", "lat": "19.1", "lon": "72.9"}
		]`))
	})

	results, err := p.Search(context.Background(), "Mumbai", Options{Region: "in", Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "Mumbai", gotQuery)
	assert.Equal(t, "2", gotLimit)
	assert.Equal(t, "in", gotCodes)
	assert.NotEmpty(t, gotAgent)

	require.Len(t, results, 2)
	assert.Equal(t, "Mumbai, Maharashtra, India", results[0].Name)
	assert.InDelta(t, 19.076, results[0].Latitude, 1e-9)
	assert.InDelta(t, 0.4+0.5*0.8, results[0].Confidence, 1e-9)
	// Missing importance falls back to the neutral score.
	assert.InDelta(t, 0.5, results[1].Confidence, 1e-9)
	assert.Equal(t, "nominatim", results[0].Provider)
}

func TestNominatimSearch_DefaultLimit(t *testing.T) {
	var gotLimit string
	p := nominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`[{"display_name": "X City", "lat": "1.0", "lon": "2.0"}]`))
	})

	_, err := p.Search(context.Background(), "X City", Options{})
	require.NoError(t, err)
	assert.Equal(t, "3", gotLimit)
}

func TestNominatimSearch_Empty(t *testing.T) {
	p := nominatimServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := p.Search(context.Background(), "Nowhere", Options{})
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestNominatimSearch_SkipsUnparsablePlaces(t *testing.T) {
	p := nominatimServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"display_name": "Broken", "lat": "not-a-number", "lon": "2.0"},
			{"display_name": "Valid", "lat": "1.0", "lon": "2.0"}
		]`))
	})

	results, err := p.Search(context.Background(), "Mixed", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Valid", results[0].Name)
}

func TestNominatimSearch_HTTPError(t *testing.T) {
	p := nominatimServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Search(context.Background(), "Mumbai", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNominatimReverse(t *testing.T) {
	var gotPath, gotLat, gotLon string
	p := nominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLat = r.URL.Query().Get("lat")
		gotLon = r.URL.Query().Get("lon")
		_, _ = w.Write([]byte(`{"display_name": "Dharavi, Mumbai, India", "lat": "19.04", "lon": "72.85"}`))
	})

	got, err := p.Reverse(context.Background(), 19.04, 72.85)
	require.NoError(t, err)
	assert.Equal(t, "/reverse", gotPath)
	assert.Equal(t, "19.04", gotLat)
	assert.Equal(t, "72.85", gotLon)
	assert.Equal(t, "Dharavi, Mumbai, India", got.Name)
}

func TestNominatimReverse_NoResult(t *testing.T) {
	p := nominatimServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := p.Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestNominatimConfidence(t *testing.T) {
	assert.InDelta(t, 0.5, nominatimConfidence(0), 1e-9)
	assert.InDelta(t, 0.5, nominatimConfidence(-1), 1e-9)
	assert.InDelta(t, 0.65, nominatimConfidence(0.5), 1e-9)
	assert.InDelta(t, 0.9, nominatimConfidence(1), 1e-9)
	// Importance above 1 is clamped.
	assert.InDelta(t, 0.9, nominatimConfidence(3), 1e-9)
}
