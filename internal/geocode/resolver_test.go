package geocode

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider scripts provider behavior for resolver tests.
type fakeProvider struct {
	name     string
	interval time.Duration

	mu           sync.Mutex
	searchCalls  int
	reverseCalls int
	lastOpts     Options

	searchFn  func(query string) ([]Result, error)
	reverseFn func(lat, lng float64) (*Result, error)
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) MinInterval() time.Duration { return p.interval }

func (p *fakeProvider) Search(_ context.Context, query string, opts Options) ([]Result, error) {
	p.mu.Lock()
	p.searchCalls++
	p.lastOpts = opts
	p.mu.Unlock()
	return p.searchFn(query)
}

func (p *fakeProvider) Reverse(_ context.Context, lat, lng float64) (*Result, error) {
	p.mu.Lock()
	p.reverseCalls++
	p.mu.Unlock()
	if p.reverseFn == nil {
		return nil, ErrReverseUnsupported
	}
	return p.reverseFn(lat, lng)
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.searchCalls
}

func okProvider(name string, results ...Result) *fakeProvider {
	return &fakeProvider{
		name:     name,
		searchFn: func(string) ([]Result, error) { return results, nil },
	}
}

func failProvider(name string, err error) *fakeProvider {
	return &fakeProvider{
		name:     name,
		searchFn: func(string) ([]Result, error) { return nil, err },
	}
}

func newTestResolver(providers ...Provider) *Resolver {
	r := NewResolver(providers, NewCache(time.Hour), slog.New(slog.DiscardHandler))
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

func TestResolve_ProviderHit(t *testing.T) {
	want := Result{Name: "Mumbai", Latitude: 19.076, Longitude: 72.8777, Provider: "primary"}
	r := newTestResolver(okProvider("primary", want))

	got, err := r.Resolve(context.Background(), "Mumbai", Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestResolve_ZeroOptionsGetDefaults(t *testing.T) {
	p := okProvider("primary", Result{Name: "Mumbai"})
	r := newTestResolver(p)

	_, err := r.Resolve(context.Background(), "Mumbai", Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), p.lastOpts)
}

func TestResolve_CachesResults(t *testing.T) {
	p := okProvider("primary", Result{Name: "Mumbai"})
	r := newTestResolver(p)

	_, err := r.Resolve(context.Background(), "Mumbai", Options{})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "Mumbai", Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls())
}

func TestResolve_CacheKeyNormalized(t *testing.T) {
	p := okProvider("primary", Result{Name: "Mumbai"})
	r := newTestResolver(p)

	_, err := r.Resolve(context.Background(), "Mumbai,", Options{})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "  mumbai ", Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls())
}

func TestResolve_FallsBackToNextProvider(t *testing.T) {
	broken := failProvider("primary", errors.New("quota exceeded"))
	backup := okProvider("backup", Result{Name: "Mumbai", Provider: "backup"})
	r := newTestResolver(broken, backup)

	got, err := r.Resolve(context.Background(), "Mumbai", Options{})
	require.NoError(t, err)
	assert.Equal(t, "backup", got[0].Provider)
}

func TestResolve_EmptyResultsTriggerFallback(t *testing.T) {
	empty := failProvider("primary", ErrNoResults)
	backup := okProvider("backup", Result{Name: "Mumbai", Provider: "backup"})
	r := newTestResolver(empty, backup)

	got, err := r.Resolve(context.Background(), "Mumbai", Options{})
	require.NoError(t, err)
	assert.Equal(t, "backup", got[0].Provider)
}

func TestResolve_FuzzyCacheFallback(t *testing.T) {
	calls := 0
	p := &fakeProvider{
		name: "flaky",
		searchFn: func(string) ([]Result, error) {
			calls++
			if calls == 1 {
				return []Result{{Name: "Bengaluru, Karnataka", Latitude: 12.9716, Longitude: 77.5946}}, nil
			}
			return nil, errors.New("provider down")
		},
	}
	r := newTestResolver(p)

	_, err := r.Resolve(context.Background(), "Bengaluru", Options{})
	require.NoError(t, err)

	// The misspelled retry fails at the provider but lands on the cached
	// near-identical query.
	got, err := r.Resolve(context.Background(), "Bengaiuru", Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bengaluru, Karnataka", got[0].Name)
}

func TestResolve_AllProvidersFail(t *testing.T) {
	r := newTestResolver(failProvider("a", errors.New("down")), failProvider("b", errors.New("down")))

	_, err := r.Resolve(context.Background(), "Nowhere", Options{})
	assert.ErrorIs(t, err, ErrResolutionFailed)
}

func TestResolve_CanceledContextSkipsFuzzy(t *testing.T) {
	p := okProvider("primary", Result{Name: "Mumbai"})
	p.interval = time.Hour
	r := newTestResolver(p)

	_, err := r.Resolve(context.Background(), "Mumbai", Options{})
	require.NoError(t, err)

	// "Mumbay" would fuzzy-match the cached "Mumbai" entry; a canceled
	// context must win over the fallback.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	_, err = r.Resolve(ctx, "Mumbay", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_PacesRepeatCalls(t *testing.T) {
	p := okProvider("slow", Result{Name: "A"})
	p.interval = time.Hour

	var slept []time.Duration
	r := newTestResolver(p)
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := r.Resolve(context.Background(), "First", Options{})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "Second", Options{})
	require.NoError(t, err)

	require.Len(t, slept, 1)
	assert.Greater(t, slept[0], 59*time.Minute)
}

func TestReverseResolve(t *testing.T) {
	p := &fakeProvider{
		name: "primary",
		reverseFn: func(lat, lng float64) (*Result, error) {
			return &Result{Name: "Mumbai, India", Latitude: lat, Longitude: lng}, nil
		},
	}
	r := newTestResolver(p)

	got, err := r.ReverseResolve(context.Background(), 19.076, 72.8777)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai, India", got.Name)

	// Second lookup is served from cache.
	_, err = r.ReverseResolve(context.Background(), 19.076, 72.8777)
	require.NoError(t, err)
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, 1, p.reverseCalls)
}

func TestReverseResolve_RoundTripsThroughResolve(t *testing.T) {
	const lat, lng = 19.076, 72.8777
	p := &fakeProvider{
		name: "primary",
		searchFn: func(query string) ([]Result, error) {
			if query != "Mumbai, Maharashtra, India" {
				return nil, ErrNoResults
			}
			return []Result{{Name: query, Latitude: lat, Longitude: lng}}, nil
		},
		reverseFn: func(lat, lng float64) (*Result, error) {
			return &Result{Name: "Mumbai, Maharashtra, India", Latitude: lat, Longitude: lng}, nil
		},
	}
	r := newTestResolver(p)

	place, err := r.ReverseResolve(context.Background(), lat, lng)
	require.NoError(t, err)

	// Feeding the reverse-resolved name back in lands on the same spot.
	got, err := r.Resolve(context.Background(), place.Name, Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, lat, got[0].Latitude, 1e-6)
	assert.InDelta(t, lng, got[0].Longitude, 1e-6)
}

func TestReverseResolve_SkipsUnsupportedProvider(t *testing.T) {
	noReverse := &fakeProvider{name: "forward-only"}
	withReverse := &fakeProvider{
		name: "full",
		reverseFn: func(lat, lng float64) (*Result, error) {
			return &Result{Name: "Somewhere", Provider: "full"}, nil
		},
	}
	r := newTestResolver(noReverse, withReverse)

	got, err := r.ReverseResolve(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, "full", got.Provider)
}

func TestBuildProviders(t *testing.T) {
	chain := BuildProviders("")
	require.Len(t, chain, 1)
	assert.Equal(t, "nominatim", chain[0].Name())

	chain = BuildProviders("api-key")
	require.Len(t, chain, 2)
	assert.Equal(t, "google", chain[0].Name())
	assert.Equal(t, "nominatim", chain[1].Name())
}
