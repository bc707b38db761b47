package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server implements the health endpoint for load balancers and CI.
type Server struct {
	db Pinger
}

// NewServer returns a new health HTTP server. db may be nil; then the
// endpoint reports liveness only.
func NewServer(db Pinger) *Server {
	return &Server{db: db}
}

// Register mounts the health route on the router.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/healthz", s.HealthCheck).Methods(http.MethodGet)
}

// HealthCheck returns 200 when the service (and the store, if wired) is up,
// 503 otherwise.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
