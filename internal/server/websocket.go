package server

import (
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/haulware/stopscan/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checking is delegated to the reverse proxy in deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsExtractRequest carries one extraction request over the socket. The
// image travels base64-encoded inside the JSON frame.
type wsExtractRequest struct {
	Image string `json:"image"`
}

// wsExtractEvent is one server-to-client frame: progress updates while
// the pipeline runs, then a completed or error frame.
type wsExtractEvent struct {
	Type    string           `json:"type"` // "progress", "completed", "error"
	Percent int              `json:"percent,omitempty"`
	Stage   string           `json:"stage,omitempty"`
	Result  *ExtractResponse `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// extractWebSocketHandler streams pipeline progress to the client while
// an extraction runs, then delivers the result on the same connection.
func (s *Server) extractWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()
	s.logger.Info("websocket connection established", "remote", r.RemoteAddr)

	for {
		var req wsExtractRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			s.wsSend(conn, &sync.Mutex{}, wsExtractEvent{Type: "error", Error: "invalid base64 image"})
			continue
		}

		s.runOverSocket(r, conn, data)
	}
}

func (s *Server) runOverSocket(r *http.Request, conn *websocket.Conn, data []byte) {
	// Serializes progress frames against the final frame; progress
	// callbacks fire from the pipeline goroutine.
	var writeMu sync.Mutex

	progress := func(percent int, stage string) {
		s.wsSend(conn, &writeMu, wsExtractEvent{Type: "progress", Percent: percent, Stage: stage})
	}

	run, err := s.newRun(pipeline.ProgressFunc(progress))
	if err != nil {
		s.wsSend(conn, &writeMu, wsExtractEvent{Type: "error", Error: "pipeline unavailable"})
		return
	}

	result, err := run.Run(r.Context(), data)
	if err != nil {
		extractionsTotal.WithLabelValues("error").Inc()
		s.wsSend(conn, &writeMu, wsExtractEvent{Type: "error", Error: err.Error()})
		return
	}

	extractionsTotal.WithLabelValues("ok").Inc()
	extractionCandidates.Observe(float64(len(result.Candidates)))
	s.wsSend(conn, &writeMu, wsExtractEvent{
		Type: "completed",
		Result: &ExtractResponse{
			Candidates:    result.Candidates,
			Summary:       result.Summary,
			SummaryText:   result.Summary.String(),
			OCRConfidence: result.OCRConfidence,
		},
	})
}

func (s *Server) wsSend(conn *websocket.Conn, mu *sync.Mutex, event wsExtractEvent) {
	mu.Lock()
	defer mu.Unlock()
	if err := conn.WriteJSON(event); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
	}
}
