// Package api serves labeling runs over HTTP: JSON endpoints for stored
// runs and documents, an ad-hoc labeling endpoint, and a WebSocket feed of
// run progress.
package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/textspan/speechmark/core/dataset"
	"github.com/textspan/speechmark/core/quote"
	"github.com/textspan/speechmark/internal/logging"
)

// Config holds the server configuration.
type Config struct {
	// Port is the TCP port to listen on.
	Port int

	// Store is the run store to serve; may be nil, in which case the
	// run endpoints return 503.
	Store *dataset.Store

	// EngineConfig is the configuration used by the ad-hoc labeling
	// endpoint.
	EngineConfig quote.Config
}

// Server is the HTTP API server.
type Server struct {
	cfg Config
	hub *Hub
}

// NewServer builds a server and starts its WebSocket hub.
func NewServer(cfg Config) *Server {
	s := &Server{cfg: cfg, hub: NewHub()}
	go s.hub.Run()
	return s
}

// Hub returns the server's progress hub, for wiring into batch runs.
func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe blocks serving HTTP on the configured port.
func (s *Server) ListenAndServe() error {
	logging.ServerStartup("api", s.cfg.Port)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// Routes builds the server's HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/info", s.handleInfo)
	mux.HandleFunc("GET /api/v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/v1/runs/{id}/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/v1/runs/{id}/documents/{doc}", s.handleGetDocument)
	mux.HandleFunc("POST /api/v1/label", s.handleLabel)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	return logRequests(mux)
}

// logRequests logs every request with its status and duration.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.HTTPRequest(r.Method, r.URL.Path, r.RemoteAddr, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrade pass through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}
