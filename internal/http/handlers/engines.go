package handlers

import (
	"net/http"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

type engineView struct {
	domain.EngineDefinition
	Reachable bool `json:"reachable"`
}

// ListEngines returns the available catalog with per-engine reachability
// under the currently configured credentials.
func (a *App) ListEngines(w http.ResponseWriter, r *http.Request) {
	engines := a.Engines.All()
	views := make([]engineView, 0, len(engines))
	for _, e := range engines {
		reachable := e.Local() || e.Free() || a.Credentials.Has(e.CredentialKey)
		views = append(views, engineView{EngineDefinition: e, Reachable: reachable})
	}
	a.json(w, http.StatusOK, map[string]any{"engines": views})
}
