// Package server exposes the view engine and sync commands over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/C-Tharun/vitalsync/internal/store"
	"github.com/C-Tharun/vitalsync/internal/syncer"
	"github.com/C-Tharun/vitalsync/internal/view"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  store.Store
	syncer *syncer.Syncer
	engine *view.Engine
	log    *slog.Logger
	apiKey string
	loc    *time.Location
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(st store.Store, sy *syncer.Syncer, engine *view.Engine, apiKey string, loc *time.Location, log *slog.Logger) *Server {
	s := &Server{
		store:  st,
		syncer: sy,
		engine: engine,
		log:    log,
		apiKey: apiKey,
		loc:    loc,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Read endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/dashboard", s.handleDashboard)
	s.router.Get("/api/v1/history", s.handleHistory)
	s.router.Get("/api/v1/samples", s.handleSamples)
	s.router.Get("/api/v1/session", s.handleGetSession)

	// Mutating endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/session", s.handleSetSession)
		r.Post("/api/v1/sync", s.handleSync)
		r.Post("/api/v1/sync/summary", s.handleSyncSummary)
	})

	s.router.Handle("/metrics", promhttp.Handler())
}
