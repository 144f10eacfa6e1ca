package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter caps requests per client IP within a sliding one-minute
// window. Extraction requests are expensive (OCR plus geocoding), so the
// default limit is deliberately modest.
type RateLimiter struct {
	mu                sync.Mutex
	requestsPerMinute int
	clients           map[string]*clientWindow
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter; a non-positive limit disables it.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		clients:           make(map[string]*clientWindow),
	}
}

// Allow records a request for the client and reports whether it is
// within the limit.
func (rl *RateLimiter) Allow(clientID string) error {
	if rl.requestsPerMinute <= 0 {
		return nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.clients[clientID]
	if !ok || now.Sub(w.windowStart) >= time.Minute {
		rl.clients[clientID] = &clientWindow{count: 1, windowStart: now}
		rl.cleanupLocked(now)
		return nil
	}

	if w.count >= rl.requestsPerMinute {
		rateLimitHits.Inc()
		return fmt.Errorf("rate limit exceeded: %d requests per minute", rl.requestsPerMinute)
	}
	w.count++
	return nil
}

// cleanupLocked drops windows that expired more than a minute ago.
func (rl *RateLimiter) cleanupLocked(now time.Time) {
	for id, w := range rl.clients {
		if now.Sub(w.windowStart) >= 2*time.Minute {
			delete(rl.clients, id)
		}
	}
}
