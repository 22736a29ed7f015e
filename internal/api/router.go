package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Reconciler performs the work behind the run endpoints.
type Reconciler interface {
	Run(ctx context.Context, req RunRequest, log zerolog.Logger) (*models.RunSummary, error)
	Resolve(ctx context.Context, log zerolog.Logger) (*models.IdentityMap, error)
}

// RunLoggerFunc builds the logger of a run, teeing its lines into out.
type RunLoggerFunc func(out *models.Run) zerolog.Logger

// Server holds shared state for all API handlers.
type Server struct {
	Runs       *models.RunStore
	Reconciler Reconciler
	RunLogger  RunLoggerFunc
	// DefaultDryRun applies when a run request does not set dry_run.
	DefaultDryRun bool
	Log           zerolog.Logger

	// ctx bounds background runs; cancelling it stops them.
	ctx context.Context
}

// NewServer creates a Server whose runs live as long as ctx.
func NewServer(ctx context.Context, runs *models.RunStore, rec Reconciler, runLogger RunLoggerFunc, log zerolog.Logger) *Server {
	return &Server{Runs: runs, Reconciler: rec, RunLogger: runLogger, Log: log, ctx: ctx}
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", s.StartRun)
		r.Get("/runs", s.ListRuns)
		r.Get("/runs/{id}", s.GetRun)
		r.Post("/runs/{id}/cancel", s.CancelRun)

		r.Get("/identity-map", s.GetIdentityMap)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/runs/{id}/logs", s.StreamRunLogs)

	return r
}
