package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/xdg/cmdbridge/internal/argv"
	"github.com/xdg/cmdbridge/internal/bridge"
	"github.com/xdg/cmdbridge/internal/clog"
	"github.com/xdg/cmdbridge/internal/version"
)

// Error codes carried in the "error" field of non-200 responses.
const (
	ErrCodeInvalidArgument  = "InvalidArgument"
	ErrCodeRejected         = "Rejected"
	ErrCodeRateLimited      = "RateLimited"
	ErrCodeNotFound         = "NotFound"
	ErrCodeMethodNotAllowed = "MethodNotAllowed"
)

// CommandRequest is the POST /command body.
type CommandRequest struct {
	Args           []string `json:"args"`
	TimeoutSeconds *float64 `json:"timeout_seconds,omitempty"`
}

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

var errArgsRequired = fmt.Errorf("%w: args is required", argv.ErrInvalidArgument)

// handleCommand processes POST /command.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeCommand(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidArgument, err.Error())
		return
	}

	res, err := s.Coordinator.Run(r.Context(), req)
	if err != nil {
		if !errors.Is(err, argv.ErrInvalidArgument) {
			clog.Error("server: unexpected coordinator error: %v", err)
		}
		writeError(w, http.StatusBadRequest, ErrCodeInvalidArgument, err.Error())
		return
	}

	w.Header().Set(RequestIDHeader, res.ID)
	if res.Outcome == bridge.Rejected {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, ErrCodeRejected, res.Detail)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeCommand reads and checks the request body. Every error it returns
// is a client error.
func (s *Server) decodeCommand(w http.ResponseWriter, r *http.Request) (bridge.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes())

	var body CommandRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return bridge.Request{}, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return bridge.Request{}, fmt.Errorf("invalid JSON body: %v", err)
	}
	if dec.More() {
		return bridge.Request{}, errors.New("invalid JSON body: trailing data")
	}
	if body.Args == nil {
		return bridge.Request{}, errArgsRequired
	}

	req := bridge.Request{Args: body.Args}
	if body.TimeoutSeconds != nil {
		d, err := secondsToDuration(*body.TimeoutSeconds)
		if err != nil {
			return bridge.Request{}, err
		}
		req.Timeout = d
	}
	return req, nil
}

// secondsToDuration converts a client-supplied timeout. Values too large to
// represent saturate, leaving the maximum check to the coordinator.
func secondsToDuration(secs float64) (time.Duration, error) {
	if math.IsNaN(secs) || secs <= 0 {
		return 0, fmt.Errorf("%w: timeout_seconds must be positive", bridge.ErrInvalidTimeout)
	}
	if secs >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64), nil
	}
	d := time.Duration(secs * float64(time.Second))
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout_seconds rounds to zero", bridge.ErrInvalidTimeout)
	}
	return d, nil
}

// handleHealth processes GET /health. It never starts a process.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Coordinator.Health())
}

// indexResponse lists the API for GET /.
type indexResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Name:    "cmdbridge",
		Version: version.Version,
		Endpoints: map[string]string{
			"GET /health":   "liveness and current load",
			"POST /command": `run the program: {"args": [...], "timeout_seconds": n}`,
			"GET /metrics":  "Prometheus metrics",
		},
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, r.URL.Path)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	allow := http.MethodGet
	if r.URL.Path == "/command" {
		allow = http.MethodPost
	}
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, r.Method+" "+r.URL.Path)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Error: code, Detail: detail})
}
