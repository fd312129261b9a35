package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/orchestrator"
)

// BatchService is the orchestrator surface the HTTP layer depends on.
type BatchService interface {
	Submit(ctx context.Context, spec domain.BatchSpec) (string, error)
	Status(ctx context.Context, jobID string) (*orchestrator.StatusView, error)
}

// Estimator projects batch cost before submission.
type Estimator interface {
	Estimate(in domain.EstimateInput) domain.CostEstimate
}

// EngineCatalog lists the configured engines.
type EngineCatalog interface {
	All() []domain.EngineDefinition
}

type App struct {
	Batches     BatchService
	Estimator   Estimator
	Engines     EngineCatalog
	Snapshots   orchestrator.SnapshotProvider
	Credentials domain.CredentialSet
	Logger      zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps domain errors onto HTTP statuses; unknown errors become a bare
// 500 so internals never leak to callers.
func (a *App) fail(w http.ResponseWriter, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		code := http.StatusInternalServerError
		switch de.Kind {
		case domain.ErrKindValidation:
			code = http.StatusBadRequest
		case domain.ErrKindConfiguration:
			code = http.StatusUnprocessableEntity
		case domain.ErrKindTimeout:
			code = http.StatusGatewayTimeout
		}
		a.json(w, code, map[string]any{"error": de.Message, "kind": de.Kind})
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		a.json(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	a.Logger.Error().Err(err).Msg("handler: internal error")
	a.json(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
