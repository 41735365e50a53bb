// Package server exposes the bridge over HTTP: GET /health reports load,
// POST /command runs the wrapped program once and returns its result.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/xdg/cmdbridge/internal/bridge"
	"github.com/xdg/cmdbridge/internal/clog"
	"github.com/xdg/cmdbridge/internal/metrics"
)

// DefaultAddr is the listen address used when Addr is empty.
const DefaultAddr = ":5000"

// DefaultMaxRequestBytes bounds a POST /command body when MaxRequestBytes is
// zero.
const DefaultMaxRequestBytes = 1 << 20

// RequestIDHeader carries the execution ID on every /command response that
// got far enough to be assigned one.
const RequestIDHeader = "X-Request-ID"

// Coordinator runs requests and reports health. *bridge.Coordinator
// satisfies it.
type Coordinator interface {
	Run(ctx context.Context, req bridge.Request) (bridge.Result, error)
	Health() bridge.Health
}

// Server serves the bridge's HTTP API.
type Server struct {
	// Addr is the address to listen on (e.g., ":5000").
	Addr string

	// Coordinator executes commands. Required.
	Coordinator Coordinator

	// MaxRequestBytes bounds the request body. Zero selects the default.
	MaxRequestBytes int64

	// RateLimit is the number of POST /command requests allowed per minute
	// across all clients. Zero disables limiting.
	RateLimit int

	// WriteTimeout bounds writing a response. It must exceed the longest
	// allowed execution; zero means no timeout.
	WriteTimeout time.Duration

	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// New creates a Server for c listening on addr.
func New(addr string, c Coordinator) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		Addr:        addr,
		Coordinator: c,
	}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /health", "/health", http.HandlerFunc(s.handleHealth))
	s.handle(mux, "POST /command", "/command", rateLimit(s.RateLimit, http.HandlerFunc(s.handleCommand)))
	s.handle(mux, "GET /metrics", "/metrics", metrics.Handler())
	s.handle(mux, "GET /{$}", "/", http.HandlerFunc(s.handleIndex))

	for _, path := range []string{"/health", "/command", "/metrics"} {
		s.handle(mux, path, path, http.HandlerFunc(handleMethodNotAllowed))
	}
	s.handle(mux, "/", "unmatched", http.HandlerFunc(handleNotFound))

	return mux
}

// handle registers h under pattern, instrumented with label as the path
// label so unmatched paths cannot inflate metric cardinality.
func (s *Server) handle(mux *http.ServeMux, pattern, label string, h http.Handler) {
	mux.Handle(pattern, instrument(label, h))
}

// Start begins accepting connections.
// Returns an error if the server is already running or fails to listen.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}
	if s.Coordinator == nil {
		return errors.New("server has no coordinator")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          clog.StdLogger(clog.LevelWarn),
	}
	s.running = true

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.Error("server: %v", err)
		}
	}()

	clog.Info("server: listening on %s", listener.Addr())
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight responses
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.server.Shutdown(ctx)
}

// ListenAddr returns the actual address the server is listening on.
// This is useful when the server was started with port 0 (random port).
// Returns empty string if the server was never started.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) maxRequestBytes() int64 {
	if s.MaxRequestBytes > 0 {
		return s.MaxRequestBytes
	}
	return DefaultMaxRequestBytes
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
