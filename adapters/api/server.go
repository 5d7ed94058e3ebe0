package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gosurv/domain/core"
	"gosurv/domain/survival"
	"gosurv/internal"
	"gosurv/internal/config"
)

// CurveStore is the persistence surface the API needs. A nil store disables
// the curve endpoints that require it.
type CurveStore interface {
	Save(ctx context.Context, curve *survival.SurvivalCurve) error
	Get(ctx context.Context, id core.CurveID) (*survival.SurvivalCurve, error)
	ListByCohort(ctx context.Context, cohort string, limit int) ([]*survival.SurvivalCurve, error)
}

// Server exposes the analysis pipeline over HTTP.
type Server struct {
	router   *chi.Mux
	analysis config.AnalysisConfig
	store    CurveStore
	logger   *internal.Logger
}

// NewServer creates the HTTP server. store may be nil.
func NewServer(analysis config.AnalysisConfig, store CurveStore, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:   chi.NewRouter(),
		analysis: analysis,
		store:    store,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/curves/{id}", s.handleGetCurve)
		r.Get("/cohorts/{cohort}/curves", s.handleListCurves)
	})
}

// Handler returns the root handler for mounting or serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server on the given port.
func (s *Server) ListenAndServe(port string) error {
	s.logger.Info("HTTP server listening on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}
