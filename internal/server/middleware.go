package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withMetrics wraps a handler with request logging, duration metrics and
// rate limiting.
func (s *Server) withMetrics(endpoint string, limited bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limited {
			if err := s.limiter.Allow(clientIP(r)); err != nil {
				s.writeError(w, err.Error(), http.StatusTooManyRequests)
				httpRequestsTotal.WithLabelValues(r.Method, endpoint, "429").Inc()
				return
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		elapsed := time.Since(start)
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(elapsed.Seconds())

		s.logger.Info("http request",
			"method", r.Method,
			"endpoint", endpoint,
			"status", rec.status,
			"duration", elapsed.Round(time.Millisecond),
			"remote", clientIP(r))
	}
}

// clientIP extracts the client address for rate limiting, honoring the
// usual proxy header. X-Forwarded-For grows one hop per proxy; only the
// first entry identifies the client.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
