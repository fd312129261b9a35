package engine

import (
	"context"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// Router dispatches to the render node for local engine variants and to the
// remote invoker for everything else.
type Router struct {
	local  Invoker
	remote Invoker
}

// NewRouter builds the routing invoker.
func NewRouter(local, remote Invoker) *Router {
	return &Router{local: local, remote: remote}
}

func (r *Router) pick(eng domain.EngineDefinition) Invoker {
	if eng.Local() {
		return r.local
	}
	return r.remote
}

func (r *Router) Invoke(ctx context.Context, eng domain.EngineDefinition, req InvokeRequest) (*Result, error) {
	return r.pick(eng).Invoke(ctx, eng, req)
}

func (r *Router) Poll(ctx context.Context, eng domain.EngineDefinition, taskID string) (*Result, bool, error) {
	return r.pick(eng).Poll(ctx, eng, taskID)
}

var _ Invoker = (*Router)(nil)
