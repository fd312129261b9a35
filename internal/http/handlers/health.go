package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	snap := a.Snapshots.Snapshot()
	a.json(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"render_node": snap,
	})
}
