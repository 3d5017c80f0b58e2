package server

import (
	"encoding/json"
	"net"
	"net/http"
	"os"
	"sync"

	"orgstats/internal/metrics"
)

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// Server publishes the rendered artifact directory over HTTP. It shares no
// mutable state with the other pipeline stages.
type Server struct {
	dir        string
	port       int
	mux        *http.ServeMux
	httpServer *http.Server
	listener   net.Listener
	mu         sync.RWMutex  // protects httpServer and listener
	ready      chan struct{} // closed when server is ready to accept connections
}

// New creates a server for the artifact directory.
func New(dir string, port int) *Server {
	s := &Server{
		dir:   dir,
		port:  port,
		mux:   http.NewServeMux(),
		ready: make(chan struct{}),
	}
	s.routes()
	return s
}

// Ready returns a channel that is closed when the server is ready to accept connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routes sets up the HTTP routes. Everything outside the operational
// endpoints resolves as a static file, with index.html as the default
// document.
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	s.mux.Handle("/", http.FileServer(http.Dir(s.dir)))
}

// handleHealth responds with server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dirOK := true
	if _, err := os.Stat(s.dir); err != nil {
		dirOK = false
	}

	status := "ok"
	if !dirOK {
		status = "degraded"
	}

	health := HealthResponse{
		Status: status,
		Checks: map[string]interface{}{
			"artifact_dir": dirOK,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleMetrics responds with current operational metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := metrics.Get()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}
