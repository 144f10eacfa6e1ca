package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// userAgent identifies us to Nominatim, whose usage policy requires one.
const userAgent = "stopscan/1.0 (delivery stop extraction)"

// NominatimProvider talks to the public OSM Nominatim instance. It is
// the free fallback and is paced at one request per second per the
// Nominatim usage policy.
type NominatimProvider struct {
	baseURL string
	client  *http.Client
}

// NewNominatimProvider builds a provider against the public instance.
func NewNominatimProvider() *NominatimProvider {
	return &NominatimProvider{
		baseURL: nominatimBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// WithBaseURL overrides the endpoint, used by tests with httptest servers.
func (p *NominatimProvider) WithBaseURL(u string) *NominatimProvider {
	p.baseURL = u
	return p
}

func (p *NominatimProvider) Name() string { return "nominatim" }

func (p *NominatimProvider) MinInterval() time.Duration { return time.Second }

type nominatimPlace struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Importance  float64 `json:"importance"`
}

// Search resolves a free-form query via /search.
func (p *NominatimProvider) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 3
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	if opts.Region != "" {
		params.Set("countrycodes", opts.Region)
	}

	var places []nominatimPlace
	if err := p.get(ctx, "/search", params, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, ErrNoResults
	}

	out := make([]Result, 0, len(places))
	for _, pl := range places {
		r, err := pl.toResult(p.Name())
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, ErrNoResults
	}
	return out, nil
}

// Reverse resolves coordinates via /reverse.
func (p *NominatimProvider) Reverse(ctx context.Context, lat, lng float64) (*Result, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")

	var place nominatimPlace
	if err := p.get(ctx, "/reverse", params, &place); err != nil {
		return nil, err
	}
	if place.DisplayName == "" {
		return nil, ErrNoResults
	}
	r, err := place.toResult(p.Name())
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *NominatimProvider) get(ctx context.Context, path string, params url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("nominatim: decode response: %w", err)
	}
	return nil
}

func (pl nominatimPlace) toResult(provider string) (Result, error) {
	lat, err := strconv.ParseFloat(pl.Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("nominatim: parse lat: %w", err)
	}
	lng, err := strconv.ParseFloat(pl.Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("nominatim: parse lon: %w", err)
	}
	return Result{
		Name:       pl.DisplayName,
		Latitude:   lat,
		Longitude:  lng,
		Confidence: nominatimConfidence(pl.Importance),
		Provider:   provider,
	}, nil
}

// nominatimConfidence maps OSM importance (roughly 0..1, often missing)
// onto a usable confidence score.
func nominatimConfidence(importance float64) float64 {
	if importance <= 0 {
		return 0.5
	}
	if importance > 1 {
		importance = 1
	}
	return 0.4 + 0.5*importance
}
