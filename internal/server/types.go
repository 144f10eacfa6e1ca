package server

import (
	"context"
	"log/slog"

	"github.com/haulware/stopscan/internal/extract"
	"github.com/haulware/stopscan/internal/geocode"
	"github.com/haulware/stopscan/internal/pipeline"
)

// extractor is the slice of the pipeline the server needs. Narrowed to
// an interface so handler tests can stub the whole flow.
type extractor interface {
	Run(ctx context.Context, imageData []byte) (*pipeline.Result, error)
}

// resolver is the slice of the geocoding resolver the server needs.
type resolver interface {
	Resolve(ctx context.Context, name string, opts geocode.Options) ([]geocode.Result, error)
	ReverseResolve(ctx context.Context, lat, lng float64) (*geocode.Result, error)
	ResolveBatch(ctx context.Context, names []string, opts geocode.BatchOptions) []geocode.BatchItem
}

// Config holds the HTTP server configuration.
type Config struct {
	Host              string
	Port              int
	MaxUploadMB       int64
	RequestsPerMinute int
	TimeoutSec        int
}

// Server exposes the extraction pipeline and the geocoding resolver over
// HTTP and WebSocket.
type Server struct {
	cfg      Config
	newRun   func(progress pipeline.ProgressFunc) (extractor, error)
	resolver resolver
	limiter  *RateLimiter
	logger   *slog.Logger
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ExtractResponse wraps a pipeline run for the HTTP API.
type ExtractResponse struct {
	Candidates    []extract.Candidate `json:"candidates"`
	Summary       pipeline.Summary    `json:"summary"`
	SummaryText   string              `json:"summary_text"`
	OCRConfidence float64             `json:"ocr_confidence"`
}

// GeocodeRequest asks for one or more names to be resolved.
type GeocodeRequest struct {
	Names  []string `json:"names"`
	Region string   `json:"region,omitempty"`
}

// GeocodeItemResponse is the per-name outcome of a geocode request.
type GeocodeItemResponse struct {
	Name    string           `json:"name"`
	Results []geocode.Result `json:"results,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// GeocodeResponse answers a geocode request.
type GeocodeResponse struct {
	Items []GeocodeItemResponse `json:"items"`
}

// ReverseResponse answers a reverse-geocode request.
type ReverseResponse struct {
	Result *geocode.Result `json:"result"`
}

// RouteLengthRequest asks for the haversine length of an ordered stop
// list.
type RouteLengthRequest struct {
	Stops [][2]float64 `json:"stops"`
}

// RouteLengthResponse reports the route length.
type RouteLengthResponse struct {
	Kilometers float64 `json:"kilometers"`
	Display    string  `json:"display"`
}
