package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// RunRequest is the body of POST /api/runs. Every field is optional.
type RunRequest struct {
	DryRun         bool     `json:"dry_run"`
	UpdateProjects bool     `json:"update_projects"`
	Instances      []string `json:"instances,omitempty"`
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StartRun starts an async reconciliation run.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	req := RunRequest{DryRun: s.DefaultDryRun}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	run := s.Runs.Start(req.DryRun)
	if run == nil {
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	run.SetCancel(cancel)
	log := s.RunLogger(run).With().Str("run_id", run.ID).Logger()

	go func() {
		defer cancel()
		summary, err := s.Reconciler.Run(ctx, req, log)
		if summary != nil {
			summary.RunID = run.ID
		}
		if err != nil {
			log.Error().Err(err).Msg("run failed")
			run.Fail(err.Error(), summary)
			return
		}
		run.Complete(summary)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": run.ID})
}

func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.Runs.List()
	out := make([]*models.Run, 0, len(runs))
	for _, run := range runs {
		out = append(out, run.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run := s.Runs.Get(id)
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run.Snapshot())
}

// CancelRun cancels a running run. The run stops before its next instance
// and rolls back its current batch.
func (s *Server) CancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run := s.Runs.Get(id)
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if !run.Cancel() {
		writeError(w, http.StatusConflict, "run is not running")
		return
	}
	run.AppendLog("CANCELLED: run stopped by user")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// GetIdentityMap resolves the current source → destination VM mapping.
func (s *Server) GetIdentityMap(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Reconciler.Resolve(r.Context(), s.Log)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": ids.Len(),
		"pairs": ids.Pairs(),
	})
}
