package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stopscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stopscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Extraction pipeline metrics
	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stopscan_extractions_total",
			Help: "Total number of extraction runs",
		},
		[]string{"status"}, // status: ok, error
	)

	extractionCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stopscan_extraction_candidates",
			Help:    "Number of candidates per extraction run",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	extractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stopscan_extraction_duration_seconds",
			Help:    "Extraction run duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
	)

	// Geocoding metrics
	geocodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stopscan_geocode_requests_total",
			Help: "Total number of geocode API requests",
		},
		[]string{"kind", "status"}, // kind: forward, reverse, batch
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stopscan_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stopscan_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 25 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stopscan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)
)
