package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

type estimateRequest struct {
	Operation       domain.Capability `json:"operation,omitempty"`
	Quantity        int               `json:"quantity"`
	DurationSeconds int               `json:"duration_seconds,omitempty"`
	ReferenceImage  string            `json:"reference_image,omitempty"`
	SourceVideo     string            `json:"source_video,omitempty"`
}

// Estimate projects min, max, and optimized cost for a prospective batch
// without creating a job.
func (a *App) Estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.json(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if req.Quantity <= 0 {
		a.json(w, http.StatusBadRequest, map[string]string{"error": "quantity must be positive"})
		return
	}

	est := a.Estimator.Estimate(domain.EstimateInput{
		Env:               a.Snapshots.Snapshot(),
		Operation:         req.Operation,
		Quantity:          req.Quantity,
		DurationSeconds:   req.DurationSeconds,
		Credentials:       a.Credentials,
		HasReferenceImage: req.ReferenceImage != "",
		HasSourceVideo:    req.SourceVideo != "",
	})
	a.json(w, http.StatusOK, est)
}
