package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Resolver walks an ordered provider chain with caching, per-provider
// pacing and a fuzzy cache fallback. One Resolver (and its cache) is
// shared by all pipeline runs in the process.
type Resolver struct {
	providers []Provider
	cache     *Cache
	logger    *slog.Logger

	mu       sync.Mutex
	lastCall map[string]time.Time

	// sleep is swappable so tests do not wait out real pacing delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewResolver builds a resolver over the given providers, first wins.
// A nil cache gets a fresh one with the default TTL.
func NewResolver(providers []Provider, cache *Cache, logger *slog.Logger) *Resolver {
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		providers: providers,
		cache:     cache,
		logger:    logger,
		lastCall:  make(map[string]time.Time),
		sleep:     sleepCtx,
	}
}

// BuildProviders assembles the provider chain from configuration:
// Google first when an API key is present, Nominatim always as the free
// fallback. The chain is built once at startup, not per call.
func BuildProviders(googleAPIKey string) []Provider {
	var providers []Provider
	if googleAPIKey != "" {
		providers = append(providers, NewGoogleProvider(googleAPIKey))
	}
	providers = append(providers, NewNominatimProvider())
	return providers
}

// Cache exposes the resolver's cache, mainly for tests and metrics.
func (r *Resolver) Cache() *Cache { return r.cache }

// Resolve geocodes a place name. Cache hits return immediately without
// touching any provider. Otherwise providers are tried in priority
// order; if all fail, the fuzzy cache fallback runs before giving up
// with ErrResolutionFailed.
func (r *Resolver) Resolve(ctx context.Context, name string, opts Options) ([]Result, error) {
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	key := Key(name, opts)
	if results, ok := r.cache.Get(key); ok {
		return results, nil
	}

	results, err := r.tryProviders(ctx, key, func(ctx context.Context, p Provider) ([]Result, error) {
		return p.Search(ctx, name, opts)
	})
	if err == nil {
		return results, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	normalized := NormalizeQuery(name)
	if cached, matchedKey, ok := fuzzyLookup(r.cache, normalized); ok {
		r.logger.Info("geocode fuzzy cache fallback",
			"query", name, "matched_key", matchedKey)
		return cached, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrResolutionFailed, name)
}

// ReverseResolve geocodes coordinates back to a place name using the
// first provider that supports reverse lookups.
func (r *Resolver) ReverseResolve(ctx context.Context, lat, lng float64) (*Result, error) {
	key := ReverseKey(lat, lng)
	if results, ok := r.cache.Get(key); ok && len(results) > 0 {
		return &results[0], nil
	}

	results, err := r.tryProviders(ctx, key, func(ctx context.Context, p Provider) ([]Result, error) {
		res, err := p.Reverse(ctx, lat, lng)
		if err != nil {
			return nil, err
		}
		return []Result{*res}, nil
	})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// tryProviders walks the chain, pacing each provider, caching the first
// non-empty answer.
func (r *Resolver) tryProviders(ctx context.Context, cacheKey string,
	call func(ctx context.Context, p Provider) ([]Result, error),
) ([]Result, error) {
	var lastErr error = ErrResolutionFailed

	for _, p := range r.providers {
		if err := r.pace(ctx, p); err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		results, err := call(callCtx, p)
		cancel()

		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("geocode provider failed",
				"provider", p.Name(), "error", err)
			lastErr = err
			continue
		}
		if len(results) == 0 {
			lastErr = ErrNoResults
			continue
		}

		r.cache.Put(cacheKey, results)
		return results, nil
	}
	return nil, lastErr
}

// pace sleeps out the provider's minimum inter-request interval. A plain
// fixed delay, not a token bucket: the sequential resolver never builds
// up bursts worth smoothing.
func (r *Resolver) pace(ctx context.Context, p Provider) error {
	r.mu.Lock()
	last, ok := r.lastCall[p.Name()]
	now := time.Now()
	r.lastCall[p.Name()] = now
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if wait := p.MinInterval() - now.Sub(last); wait > 0 {
		return r.sleep(ctx, wait)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
