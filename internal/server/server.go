// Package server exposes the extraction pipeline over HTTP: multipart
// image upload, geocoding endpoints, Prometheus metrics and a WebSocket
// progress stream.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haulware/stopscan/internal/pipeline"
)

// PipelineFactory adapts a concrete pipeline constructor into the
// factory shape the server consumes.
func PipelineFactory(f func(progress pipeline.ProgressFunc) (*pipeline.Pipeline, error)) func(pipeline.ProgressFunc) (extractor, error) {
	return func(progress pipeline.ProgressFunc) (extractor, error) {
		return f(progress)
	}
}

// New assembles a server. newRun builds a fresh pipeline per request so
// each run can carry its own progress callback; res is the process-wide
// resolver (its cache is shared state by design).
func New(cfg Config, newRun func(progress pipeline.ProgressFunc) (extractor, error), res resolver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 25
	}
	return &Server{
		cfg:      cfg,
		newRun:   newRun,
		resolver: res,
		limiter:  NewRateLimiter(cfg.RequestsPerMinute),
		logger:   logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.withMetrics("/healthz", false, s.healthHandler))
	mux.HandleFunc("/extract", s.withMetrics("/extract", true, s.extractHandler))
	mux.HandleFunc("/geocode", s.withMetrics("/geocode", true, s.geocodeHandler))
	mux.HandleFunc("/reverse", s.withMetrics("/reverse", true, s.reverseHandler))
	mux.HandleFunc("/route/length", s.withMetrics("/route/length", false, s.routeLengthHandler))
	mux.HandleFunc("/ws/extract", s.extractWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	timeout := time.Duration(s.cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
