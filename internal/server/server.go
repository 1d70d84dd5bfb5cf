package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/internal/clock"
	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
	"github.com/SmitUplenchwar2687/tsmr/internal/ring"
	"github.com/SmitUplenchwar2687/tsmr/internal/storage"
)

// DefaultExtractMax bounds an extraction when the request gives no max.
const DefaultExtractMax = 32

// maxBodyBytes caps a single measurement payload.
const maxBodyBytes = 64 << 10

// Options holds optional server components.
type Options struct {
	Sink     storage.Sink       // receives extracted batches; nil discards
	Hub      *Hub               // broadcasts batches to WebSocket clients; nil disables /ws
	Recorder *recorder.Recorder // captures accepted inserts and corrections
	Clock    clock.Clock        // stamps batches; nil uses the wall clock
}

// Server exposes a measurement ring over HTTP.
type Server struct {
	httpServer *http.Server
	ring       *ring.Guarded
	sink       storage.Sink
	hub        *Hub
	recorder   *recorder.Recorder
	clock      clock.Clock
	mux        *http.ServeMux
}

// New creates a new tsmr server.
func New(addr string, g *ring.Guarded, opts Options) *Server {
	s := &Server{
		ring:     g,
		sink:     opts.Sink,
		hub:      opts.Hub,
		recorder: opts.Recorder,
		clock:    opts.Clock,
		mux:      http.NewServeMux(),
	}
	if s.sink == nil {
		s.sink = storage.Discard{}
	}
	if s.clock == nil {
		s.clock = clock.NewRealClock()
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/measurements", s.handleInsert)
	s.mux.HandleFunc("PUT /api/measurements", s.handleCorrect)
	s.mux.HandleFunc("GET /api/measurements/{ts}", s.handleFind)
	s.mux.HandleFunc("POST /api/extract", s.handleExtract)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/window", s.handleWindow)
	if s.hub != nil {
		s.mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)
		s.mux.HandleFunc("GET /dashboard/", s.handleDashboard)
	}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.mux)
}

// handleRoot serves a welcome message.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "tsmr",
		"status":  "running",
		"time":    s.clock.Now().Format(time.RFC3339),
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// InsertResponse reports the outcome of POST /api/measurements.
type InsertResponse struct {
	Inserted  measurement.Measurement  `json:"inserted"`
	Overwrote bool                     `json:"overwrote"`
	Evicted   *measurement.Measurement `json:"evicted,omitempty"`
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	m, ok := decodeMeasurement(w, r)
	if !ok {
		return
	}

	evicted, overwrote, err := s.ring.Push(m)
	if err != nil {
		writeRingError(w, err)
		return
	}
	s.record(recorder.Insert(m))

	resp := InsertResponse{Inserted: m, Overwrote: overwrote}
	if overwrote {
		resp.Evicted = &evicted
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	m, ok := decodeMeasurement(w, r)
	if !ok {
		return
	}
	if err := s.ring.Correct(m); err != nil {
		writeRingError(w, err)
		return
	}
	s.record(recorder.Correction(m))
	writeJSON(w, http.StatusOK, m)
}

// handleFind looks up the oldest record with the timestamp in the path.
// Path: /api/measurements/{ts}
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	ts, err := strconv.ParseUint(r.PathValue("ts"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ts must be an unsigned integer")
		return
	}
	m, ok := s.ring.Find(ts)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no measurement at ts %d", ts))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ExtractResponse is returned by POST /api/extract. Error is set when the
// batch was taken from the ring but the sink rejected it.
type ExtractResponse struct {
	Batch storage.Batch `json:"batch"`
	Error string        `json:"error,omitempty"`
}

// handleExtract drains records older than ?cutoff=, at most ?max= of them.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cutoff, err := strconv.ParseUint(q.Get("cutoff"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cutoff is required and must be an unsigned integer")
		return
	}
	limit := DefaultExtractMax
	if v := q.Get("max"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "max must be a positive integer")
			return
		}
	}

	ms := s.ring.ExtractOlderThan(cutoff, limit)
	if ms == nil {
		ms = []measurement.Measurement{}
	}
	b := storage.NewBatch(cutoff, ms, s.clock.Now())
	if b.Len() == 0 {
		writeJSON(w, http.StatusOK, ExtractResponse{Batch: b})
		return
	}

	if err := s.sink.Deliver(r.Context(), b); err != nil {
		// The records have already left the ring; hand them back to the caller.
		log.Printf("deliver batch %s: %v", b.ID, err)
		writeJSON(w, http.StatusBadGateway, ExtractResponse{Batch: b, Error: err.Error()})
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(BatchEvent{Type: "batch", Batch: b})
	}
	writeJSON(w, http.StatusOK, ExtractResponse{Batch: b})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ring.Stats())
}

// WindowResponse is returned by GET /api/window.
type WindowResponse struct {
	Stats        ring.Stats                `json:"stats"`
	Measurements []measurement.Measurement `json:"measurements"`
}

// handleWindow lists the buffered measurements oldest first without
// consuming them.
func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	ms := s.ring.Snapshot()
	if ms == nil {
		ms = []measurement.Measurement{}
	}
	writeJSON(w, http.StatusOK, WindowResponse{Stats: s.ring.Stats(), Measurements: ms})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, DashboardHTML)
}

func (s *Server) record(e recorder.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(e); err != nil {
		log.Printf("record error: %v", err)
	}
}

// decodeMeasurement reads a JSON measurement. A missing id decodes as
// measurement.NoID.
func decodeMeasurement(w http.ResponseWriter, r *http.Request) (measurement.Measurement, bool) {
	m := measurement.Measurement{ID: measurement.NoID}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid measurement: %v", err))
		return m, false
	}
	return m, true
}

func writeRingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ring.ErrOutOfOrder):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ring.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ring.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.StartOnListener(ln)
}

// StartOnListener begins serving on the provided listener.
// Useful for tests that need to pick an ephemeral port.
func (s *Server) StartOnListener(ln net.Listener) error {
	log.Printf("tsmr server listening on %s", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server and disconnects WebSocket
// clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.httpServer.Shutdown(ctx)
}
