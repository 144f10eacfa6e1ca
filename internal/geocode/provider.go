// Package geocode resolves place names to coordinates through an ordered
// chain of HTTP providers with a TTL cache, per-provider pacing and a
// fuzzy cache fallback for the day every provider is down.
package geocode

import (
	"context"
	"errors"
	"time"
)

// Result is the provider-neutral shape every backend response is
// normalized into.
type Result struct {
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Confidence float64 `json:"confidence"` // 0..1 provider confidence
	Provider   string  `json:"provider"`
}

// Options narrows a forward-geocoding query.
type Options struct {
	// Region biases results toward a ccTLD region code (e.g. "in", "us").
	Region string
	// Limit caps the number of results requested from the provider.
	Limit int
}

// DefaultOptions returns the query options used when the caller passes
// the zero value.
func DefaultOptions() Options {
	return Options{Limit: 3}
}

// Provider is one geocoding backend. Implementations normalize their
// response shape into Result and declare how hard they may be hit.
type Provider interface {
	// Name identifies the provider in results and logs.
	Name() string

	// Search resolves a free-form place name.
	Search(ctx context.Context, query string, opts Options) ([]Result, error)

	// Reverse resolves coordinates to a place. Providers without reverse
	// support return ErrReverseUnsupported.
	Reverse(ctx context.Context, lat, lng float64) (*Result, error)

	// MinInterval is the minimum pause between consecutive requests to
	// this provider.
	MinInterval() time.Duration
}

var (
	// ErrNoResults means the provider answered but found nothing.
	ErrNoResults = errors.New("geocode: no results")

	// ErrReverseUnsupported marks providers without a reverse endpoint.
	ErrReverseUnsupported = errors.New("geocode: reverse geocoding not supported")

	// ErrResolutionFailed means every provider and the fuzzy cache
	// fallback failed for a query.
	ErrResolutionFailed = errors.New("geocode: all providers failed")
)

// requestTimeout bounds a single provider call.
const requestTimeout = 10 * time.Second
