package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/middleware"
)

// SubmitBatch accepts a batch spec and schedules it. The response is
// immediate; callers poll BatchStatus for progress.
func (a *App) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var spec domain.BatchSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		a.json(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if len(spec.Markets) == 0 {
		if market := middleware.MarketFromContext(r.Context()); market != "" {
			spec.Markets = []string{market}
		}
	}

	jobID, err := a.Batches.Submit(r.Context(), spec)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": string(domain.BatchQueued)})
}

// BatchStatus reports stage, per-item states, and validated refs.
func (a *App) BatchStatus(w http.ResponseWriter, r *http.Request) {
	view, err := a.Batches.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, view)
}
