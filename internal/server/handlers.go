package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/haulware/stopscan/internal/geo"
	"github.com/haulware/stopscan/internal/geocode"
)

// healthHandler returns server liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// extractHandler runs the full extraction pipeline over an uploaded
// image. Multipart field "image" carries the file; form value "mode"
// optionally overrides the capture mode.
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.cfg.MaxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeError(w, "failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, "missing image file", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	run, err := s.newRun(nil)
	if err != nil {
		extractionsTotal.WithLabelValues("error").Inc()
		s.writeError(w, "pipeline unavailable", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	result, err := run.Run(r.Context(), data)
	extractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		extractionsTotal.WithLabelValues("error").Inc()
		s.logger.Error("extraction failed", "error", err)
		s.writeError(w, "extraction failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	extractionsTotal.WithLabelValues("ok").Inc()
	extractionCandidates.Observe(float64(len(result.Candidates)))
	s.writeJSON(w, ExtractResponse{
		Candidates:    result.Candidates,
		Summary:       result.Summary,
		SummaryText:   result.Summary.String(),
		OCRConfidence: result.OCRConfidence,
	})
}

// geocodeHandler resolves one or more names through the provider chain
// using the batch entry point.
func (s *Server) geocodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GeocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Names) == 0 {
		s.writeError(w, "names must not be empty", http.StatusBadRequest)
		return
	}

	opts := geocode.BatchOptions{Query: geocode.Options{Region: req.Region, Limit: 3}}
	items := s.resolver.ResolveBatch(r.Context(), req.Names, opts)

	resp := GeocodeResponse{Items: make([]GeocodeItemResponse, len(items))}
	status := "ok"
	for i, item := range items {
		resp.Items[i] = GeocodeItemResponse{Name: item.Name, Results: item.Results}
		if item.Err != nil {
			resp.Items[i].Error = item.Err.Error()
			status = "partial"
		}
	}
	geocodeRequestsTotal.WithLabelValues("batch", status).Inc()
	s.writeJSON(w, resp)
}

// reverseHandler resolves coordinates back to a place name.
func (s *Server) reverseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil || !geo.ValidCoordinates(lat, lng) {
		s.writeError(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	result, err := s.resolver.ReverseResolve(r.Context(), lat, lng)
	if err != nil {
		geocodeRequestsTotal.WithLabelValues("reverse", "error").Inc()
		s.writeError(w, "reverse geocoding failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	geocodeRequestsTotal.WithLabelValues("reverse", "ok").Inc()
	s.writeJSON(w, ReverseResponse{Result: result})
}

// routeLengthHandler reports the haversine length of an ordered list of
// stops, a convenience for the UI's route preview.
func (s *Server) routeLengthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RouteLengthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	for _, p := range req.Stops {
		if !geo.ValidCoordinates(p[0], p[1]) {
			s.writeError(w, "invalid coordinates in stop list", http.StatusBadRequest)
			return
		}
	}

	km := geo.RouteLength(req.Stops)
	s.writeJSON(w, RouteLengthResponse{
		Kilometers: km,
		Display:    geo.FormatDistance(km),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		s.logger.Error("encode error response", "error", err)
	}
}
