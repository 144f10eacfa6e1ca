package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulware/stopscan/internal/extract"
	"github.com/haulware/stopscan/internal/geocode"
	"github.com/haulware/stopscan/internal/pipeline"
)

type stubExtractor struct {
	result *pipeline.Result
	err    error
}

func (s *stubExtractor) Run(context.Context, []byte) (*pipeline.Result, error) {
	return s.result, s.err
}

type stubResolver struct {
	resolveFn func(name string) ([]geocode.Result, error)
	reverseFn func(lat, lng float64) (*geocode.Result, error)
}

func (s *stubResolver) Resolve(_ context.Context, name string, _ geocode.Options) ([]geocode.Result, error) {
	return s.resolveFn(name)
}

func (s *stubResolver) ReverseResolve(_ context.Context, lat, lng float64) (*geocode.Result, error) {
	return s.reverseFn(lat, lng)
}

func (s *stubResolver) ResolveBatch(ctx context.Context, names []string, _ geocode.BatchOptions) []geocode.BatchItem {
	items := make([]geocode.BatchItem, len(names))
	for i, name := range names {
		results, err := s.resolveFn(name)
		items[i] = geocode.BatchItem{Name: name, Results: results, Err: err}
	}
	return items
}

func sampleRunResult() *pipeline.Result {
	c := extract.Candidate{Name: "Mumbai, Maharashtra", Source: extract.SourceGeocoded, Confidence: 0.72}
	c.SetCoordinates(19.076, 72.8777)
	return &pipeline.Result{
		Candidates:    []extract.Candidate{c},
		Summary:       pipeline.Summary{Extracted: 1, WithCoordinates: 1},
		OCRConfidence: 85,
	}
}

func newTestServer(ext *stubExtractor, res *stubResolver, requestsPerMinute int) *Server {
	return New(
		Config{MaxUploadMB: 25, RequestsPerMinute: requestsPerMinute},
		func(pipeline.ProgressFunc) (extractor, error) { return ext, nil },
		res,
		slog.New(slog.DiscardHandler),
	)
}

func multipartImage(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, "sheet.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(&stubExtractor{}, &stubResolver{}, 0)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	s := newTestServer(&stubExtractor{}, &stubResolver{}, 0)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExtractHandler(t *testing.T) {
	s := newTestServer(&stubExtractor{result: sampleRunResult()}, &stubResolver{}, 0)

	body, contentType := multipartImage(t, "image")
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "Mumbai, Maharashtra", resp.Candidates[0].Name)
	assert.Equal(t, "1 extracted, 0 need geocoding", resp.SummaryText)
	assert.InDelta(t, 85, resp.OCRConfidence, 1e-9)
}

func TestExtractHandler_MissingFile(t *testing.T) {
	s := newTestServer(&stubExtractor{result: sampleRunResult()}, &stubResolver{}, 0)

	body, contentType := multipartImage(t, "wrong_field")
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractHandler_PipelineError(t *testing.T) {
	s := newTestServer(&stubExtractor{err: errors.New("ocr failed")}, &stubResolver{}, 0)

	body, contentType := multipartImage(t, "image")
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "ocr failed")
}

func TestGeocodeHandler(t *testing.T) {
	res := &stubResolver{
		resolveFn: func(name string) ([]geocode.Result, error) {
			if name == "Atlantis" {
				return nil, geocode.ErrResolutionFailed
			}
			return []geocode.Result{{Name: name, Latitude: 19, Longitude: 72}}, nil
		},
	}
	s := newTestServer(&stubExtractor{}, res, 0)

	payload := `{"names": ["Mumbai", "Atlantis"]}`
	req := httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp GeocodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Empty(t, resp.Items[0].Error)
	require.Len(t, resp.Items[0].Results, 1)
	assert.Contains(t, resp.Items[1].Error, "all providers failed")
}

func TestGeocodeHandler_BadRequests(t *testing.T) {
	s := newTestServer(&stubExtractor{}, &stubResolver{}, 0)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(`{"names": []}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReverseHandler(t *testing.T) {
	res := &stubResolver{
		reverseFn: func(lat, lng float64) (*geocode.Result, error) {
			return &geocode.Result{Name: "Mumbai, India", Latitude: lat, Longitude: lng}, nil
		},
	}
	s := newTestServer(&stubExtractor{}, res, 0)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reverse?lat=19.076&lng=72.8777", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReverseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Equal(t, "Mumbai, India", resp.Result.Name)
}

func TestReverseHandler_InvalidCoordinates(t *testing.T) {
	s := newTestServer(&stubExtractor{}, &stubResolver{}, 0)

	for _, q := range []string{"", "lat=abc&lng=72", "lat=95&lng=72", "lat=19&lng=185"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reverse?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestReverseHandler_ResolverError(t *testing.T) {
	res := &stubResolver{
		reverseFn: func(float64, float64) (*geocode.Result, error) {
			return nil, geocode.ErrResolutionFailed
		},
	}
	s := newTestServer(&stubExtractor{}, res, 0)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reverse?lat=19&lng=72", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRouteLengthHandler(t *testing.T) {
	s := newTestServer(&stubExtractor{}, &stubResolver{}, 0)

	payload := `{"stops": [[19.076, 72.8777], [28.6139, 77.209]]}`
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/route/length", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RouteLengthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 1150, resp.Kilometers, 20)
	assert.Contains(t, resp.Display, "km")
}

func TestRouteLengthHandler_InvalidStop(t *testing.T) {
	s := newTestServer(&stubExtractor{}, &stubResolver{}, 0)

	payload := `{"stops": [[95.0, 72.0]]}`
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/route/length", strings.NewReader(payload)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitedEndpoint(t *testing.T) {
	res := &stubResolver{
		resolveFn: func(name string) ([]geocode.Result, error) {
			return []geocode.Result{{Name: name}}, nil
		},
	}
	s := newTestServer(&stubExtractor{}, res, 2)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(`{"names": ["Mumbai"]}`))
		req.RemoteAddr = "10.0.0.1:1234"
		s.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(`{"names": ["Mumbai"]}`))
	req.RemoteAddr = "10.0.0.1:1234"
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is unaffected.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(`{"names": ["Mumbai"]}`))
	req.RemoteAddr = "10.0.0.2:1234"
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
