package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/response"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/jobs"
)

// SimulationHandler handles background simulation jobs.
type SimulationHandler struct {
	jobs *jobs.Manager
}

// NewSimulationHandler creates a new SimulationHandler.
func NewSimulationHandler(m *jobs.Manager) *SimulationHandler {
	return &SimulationHandler{jobs: m}
}

// SubmitRequest queues a simulation against a stored deck or inline cards.
type SubmitRequest struct {
	DeckID string       `json:"deck_id,omitempty"`
	Cards  []deck.Entry `json:"cards,omitempty"`
	analysis.SimulateRequest
}

// Submit queues a simulation job. Progress is pushed over /ws.
func (h *SimulationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	job, err := h.jobs.Submit(jobs.Request{
		DeckID:     req.DeckID,
		Cards:      req.Cards,
		Simulation: req.SimulateRequest,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Accepted(w, job)
}

// ListJobs returns the retained jobs, oldest first.
func (h *SimulationHandler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.jobs.List())
}

// GetJob returns a job snapshot.
func (h *SimulationHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, job)
}

// CancelJob cancels a queued or running job.
func (h *SimulationHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	if err := h.jobs.Cancel(id); err != nil {
		response.FromError(w, err)
		return
	}
	response.Accepted(w, map[string]string{"id": id, "status": "cancelling"})
}
