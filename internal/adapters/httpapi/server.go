package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/biofluidics/pinchctl/internal/domain"
	"github.com/biofluidics/pinchctl/internal/ports"
)

// Regulator is the view of the running loop the observation feed exposes.
type Regulator interface {
	// Snapshot returns the last published per-tick observation.
	Snapshot() domain.Observation

	// Setpoint returns the current target flow rate.
	Setpoint() float64

	// SetSetpoint updates the target flow rate.
	SetSetpoint(flow float64) error
}

// Server serves the observation feed: a read-only per-tick snapshot for
// monitoring plus remote setpoint entry. It is not a UI; it is the wire a
// UI consumes. A Server outlives control sessions: Start and Shutdown may
// be called once per session, so each Start builds a fresh http.Server
// (a stdlib server is single-use after Shutdown).
type Server struct {
	addr   string
	router *mux.Router
	reg    Regulator
	logger ports.Logger

	mu      sync.Mutex
	srv     *http.Server
	boundTo string
}

// NewServer creates a feed server bound to addr.
func NewServer(addr string, reg Regulator, logger ports.Logger) *Server {
	s := &Server{addr: addr, reg: reg, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", s.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/setpoint", s.getSetpoint).Methods(http.MethodGet)
	r.HandleFunc("/v1/setpoint", s.putSetpoint).Methods(http.MethodPut)
	s.router = r

	return s
}

// Start begins serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.srv = srv
	s.boundTo = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("observation feed server error", ports.Err(err))
		}
	}()

	s.logger.Info("observation feed listening", ports.String("addr", ln.Addr().String()))
	return nil
}

// Shutdown stops the server gracefully and releases the listener.
// A no-op when the server is not running, so fault cleanup and Stop can
// both call it.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Addr returns the address the listener is bound to, or the configured
// address before the first Start. Lets callers (and tests) bind to ":0".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boundTo != "" {
		return s.boundTo
	}
	return s.addr
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.Snapshot())
}

type setpointBody struct {
	Flow float64 `json:"flow"`
}

func (s *Server) getSetpoint(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, setpointBody{Flow: s.reg.Setpoint()})
}

func (s *Server) putSetpoint(w http.ResponseWriter, r *http.Request) {
	var body setpointBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "malformed setpoint body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.reg.SetSetpoint(body.Flow); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Info("setpoint updated via feed", ports.Float64("flow", body.Flow))
	writeJSON(w, http.StatusOK, setpointBody{Flow: s.reg.Setpoint()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
