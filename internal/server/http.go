package server

import (
	"encoding/json"
	"net/http"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

const (
	ipcPath    = "/ipc"
	healthPath = "/healthz"
)

// ServeHTTP routes the websocket endpoint and the health endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case ipcPath:
		s.auth.Middleware(http.HandlerFunc(s.handleIPC)).ServeHTTP(w, r)
	case healthPath:
		s.handleHealth(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.GetStats()); err != nil {
		s.logger.Debug("Failed to write health response", log.Error(err))
	}
}
