// Package server exposes the worker's HTTP status surface.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/appswitch-io/appswitch/internal/config"
	"github.com/appswitch-io/appswitch/internal/logging"
)

// Server serves read-only health and status endpoints.
type Server struct {
	provider *config.Provider
	router   *chi.Mux
	httpSrv  *http.Server
}

// New creates a server reading live configuration from the provider.
func New(provider *config.Provider) *Server {
	s := &Server{
		provider: provider,
		router:   chi.NewRouter(),
	}
	s.router.Use(middleware.Recoverer)
	s.router.Get("/health", s.health)
	s.router.Get("/status", s.status)
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
	}
	logging.Info().Str("addr", addr).Msg("status server listening")
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	cfg := s.provider.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"worker_name":                 cfg.WorkerName,
		"receive_inbound_connectors":  cfg.ReceiveInboundConnectors,
		"receive_outbound_connectors": cfg.ReceiveOutboundConnectors,
		"menu_entries":                len(cfg.Entries),
		"session_expiry":              cfg.SessionExpiry,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
