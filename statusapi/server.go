// Package statusapi exposes the Manager's registry, health and stats as
// a small JSON HTTP surface for dashboards and probes. It is read-only:
// all mutation stays with the application shell.
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/beatlab/beatlab"
)

// Server serves the status endpoints for one Manager.
type Server struct {
	mgr    *beatlab.Manager
	logger beatlab.Logger
	srv    *http.Server
}

// New creates a status server bound to addr.
func New(mgr *beatlab.Manager, addr string, logger beatlab.Logger) *Server {
	if logger == nil {
		logger = beatlab.NopLogger{}
	}
	s := &Server{mgr: mgr, logger: logger}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi router. Exposed separately so tests can drive it
// with httptest without binding a port.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/stats", s.handleStats)
	r.Get("/modules", s.handleModules)
	r.Get("/modules/{id}/health", s.handleModuleHealth)

	return r
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("status api listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status api failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type healthzResponse struct {
	Status    string `json:"status"`
	Healthy   int    `json:"healthy"`
	Unhealthy int    `json:"unhealthy"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	stats := s.mgr.GetStats()
	resp := healthzResponse{
		Status:    "ok",
		Healthy:   stats.HealthyModules,
		Unhealthy: stats.UnhealthyModules,
	}
	code := http.StatusOK
	if stats.UnhealthyModules > 0 {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.mgr.GetStats())
}

type moduleDescriptor struct {
	ID           string                      `json:"id"`
	Type         beatlab.ModuleType          `json:"type"`
	Name         string                      `json:"name"`
	State        beatlab.State               `json:"state"`
	Capabilities beatlab.Capabilities        `json:"capabilities"`
	Viz          beatlab.VisualizationConfig `json:"visualization"`
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	ids := s.mgr.ModuleIDs()
	out := make([]moduleDescriptor, 0, len(ids))
	for _, id := range ids {
		mod, ok := s.mgr.GetModule(id)
		if !ok {
			continue
		}
		meta := mod.Metadata()
		out = append(out, moduleDescriptor{
			ID:           id,
			Type:         mod.Type(),
			Name:         meta.Name,
			State:        mod.State(),
			Capabilities: meta.Capabilities,
			Viz:          meta.Viz,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleModuleHealth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, ok := s.mgr.GetHealth(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "module not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("status api encode failed", "error", err)
	}
}
