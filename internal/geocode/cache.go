package geocode

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTTL governs how long geocoding results stay fresh.
	DefaultTTL = 24 * time.Hour

	// sweepThreshold triggers an opportunistic sweep of expired entries
	// once the cache grows past this many keys.
	sweepThreshold = 1000
)

type cacheEntry struct {
	results   []Result
	timestamp time.Time
}

// Cache is a TTL-bounded map of query key to geocoding results. One
// instance is shared by all pipeline runs in a process; a single mutex is
// plenty since the resolver serializes its own access anyway. Stale
// entries are evicted lazily on read and swept in bulk when the cache
// outgrows sweepThreshold.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given TTL; ttl <= 0 uses DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Key derives the cache key for a forward query.
func Key(query string, opts Options) string {
	return fmt.Sprintf("q:%s:%s:%d", NormalizeQuery(query), opts.Region, opts.Limit)
}

// ReverseKey derives the cache key for a reverse query. Coordinates are
// rounded to ~11m so nearby lookups share an entry.
func ReverseKey(lat, lng float64) string {
	return fmt.Sprintf("r:%.4f:%.4f", lat, lng)
}

// Get returns the cached results for key if present and fresh. An
// expired entry is deleted on the way out.
func (c *Cache) Get(key string) ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.timestamp) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.results, true
}

// Put stores results under key, sweeping expired entries first when the
// cache has grown past the threshold.
func (c *Cache) Put(key string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= sweepThreshold {
		c.sweepLocked()
	}
	c.entries[key] = cacheEntry{results: results, timestamp: c.now()}
}

// Len reports the number of entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns the keys and results of all fresh entries. The fuzzy
// fallback iterates this when every provider has failed.
func (c *Cache) Snapshot() map[string][]Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string][]Result, len(c.entries))
	for k, e := range c.entries {
		if c.now().Sub(e.timestamp) > c.ttl {
			continue
		}
		out[k] = e.results
	}
	return out
}

func (c *Cache) sweepLocked() {
	cutoff := c.now().Add(-c.ttl)
	for k, e := range c.entries {
		if e.timestamp.Before(cutoff) {
			delete(c.entries, k)
		}
	}
}

// NormalizeQuery lowercases a query and collapses everything that is not
// a letter, digit or space, so "Bangalore," and "bangalore" share both a
// cache key and a fuzzy-match form.
func NormalizeQuery(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(q)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
