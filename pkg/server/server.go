package server

import (
	"net/http"

	internalserver "github.com/SmitUplenchwar2687/tsmr/internal/server"
	"github.com/SmitUplenchwar2687/tsmr/pkg/ring"
)

// Server exposes a measurement ring over HTTP.
type Server = internalserver.Server

// Options configures optional server features.
type Options = internalserver.Options

// Hub manages WebSocket clients and broadcasts extracted batches.
type Hub = internalserver.Hub

// InsertResponse is returned by POST /api/measurements.
type InsertResponse = internalserver.InsertResponse

// ExtractResponse is returned by POST /api/extract.
type ExtractResponse = internalserver.ExtractResponse

// New creates a new server around g.
func New(addr string, g *ring.Guarded, opts Options) *Server {
	return internalserver.New(addr, g, opts)
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return internalserver.NewHub()
}

// LoggingMiddleware logs method, path, status and latency of each request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return internalserver.LoggingMiddleware(next)
}
