package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleProvider talks to the Google Geocoding API. It is the premium
// provider and goes first in the chain whenever an API key is configured.
type GoogleProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGoogleProvider builds a provider around the given API key.
func NewGoogleProvider(apiKey string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:  apiKey,
		baseURL: googleGeocodeURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// WithBaseURL overrides the endpoint, used by tests with httptest servers.
func (p *GoogleProvider) WithBaseURL(u string) *GoogleProvider {
	p.baseURL = u
	return p
}

func (p *GoogleProvider) Name() string { return "google" }

// MinInterval is short: the paid tier tolerates bursts.
func (p *GoogleProvider) MinInterval() time.Duration { return 100 * time.Millisecond }

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
		PartialMatch bool `json:"partial_match"`
	} `json:"results"`
}

// Search resolves a free-form address.
func (p *GoogleProvider) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", p.apiKey)
	if opts.Region != "" {
		params.Set("region", opts.Region)
	}
	return p.fetch(ctx, params, opts.Limit)
}

// Reverse resolves coordinates to the nearest address.
func (p *GoogleProvider) Reverse(ctx context.Context, lat, lng float64) (*Result, error) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("key", p.apiKey)

	results, err := p.fetch(ctx, params, 1)
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

func (p *GoogleProvider) fetch(ctx context.Context, params url.Values, limit int) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("google: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: unexpected status %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("google: decode response: %w", err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		if body.ErrorMessage != "" {
			return nil, fmt.Errorf("google: %s: %s", body.Status, body.ErrorMessage)
		}
		return nil, fmt.Errorf("google: status %s", body.Status)
	}
	if len(body.Results) == 0 {
		return nil, ErrNoResults
	}

	if limit <= 0 || limit > len(body.Results) {
		limit = len(body.Results)
	}
	out := make([]Result, 0, limit)
	for _, r := range body.Results[:limit] {
		out = append(out, Result{
			Name:       r.FormattedAddress,
			Latitude:   r.Geometry.Location.Lat,
			Longitude:  r.Geometry.Location.Lng,
			Confidence: googleConfidence(r.Geometry.LocationType, r.PartialMatch),
			Provider:   p.Name(),
		})
	}
	return out, nil
}

// googleConfidence maps the API's location_type onto a [0,1] score.
func googleConfidence(locationType string, partial bool) float64 {
	conf := 0.6
	switch locationType {
	case "ROOFTOP":
		conf = 0.95
	case "RANGE_INTERPOLATED":
		conf = 0.85
	case "GEOMETRIC_CENTER":
		conf = 0.75
	case "APPROXIMATE":
		conf = 0.65
	}
	if partial {
		conf -= 0.2
	}
	if conf < 0.1 {
		conf = 0.1
	}
	return conf
}
