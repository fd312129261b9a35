// Package engine is the invocation boundary: one call per (item, engine)
// pair, translated into the backend's wire protocol. A call yields an
// immediate artifact reference, an async task handle resolved by polling, or
// an error.
package engine

import (
	"context"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// InvokeRequest carries everything a backend needs for one variation.
type InvokeRequest struct {
	ItemID          string
	Prompt          string
	DurationSeconds int
	AspectRatio     string
	Format          string
	ReferenceImage  string
	SourceVideo     string
}

// Result is the normalized invocation outcome. Exactly one of ArtifactRef or
// TaskID is set on success: a ref means the artifact is ready, a task id
// means the caller must poll.
type Result struct {
	ArtifactRef string
	TaskID      string
	Format      string
	Data        []byte
}

// Pending reports whether the result is an async handle still in flight.
func (r *Result) Pending() bool {
	return r != nil && r.TaskID != "" && r.ArtifactRef == "" && len(r.Data) == 0
}

// Invoker dispatches generation calls and resolves async handles.
type Invoker interface {
	Invoke(ctx context.Context, eng domain.EngineDefinition, req InvokeRequest) (*Result, error)
	// Poll resolves a task handle. done is false while the task is still
	// running; a terminal task returns done=true with either a result or an
	// error.
	Poll(ctx context.Context, eng domain.EngineDefinition, taskID string) (res *Result, done bool, err error)
}

// Transformer exposes the render node's deterministic post-processing
// operations used by the batch-level pipeline stages.
type Transformer interface {
	Transform(ctx context.Context, op domain.Capability, ref string, params map[string]string) (string, error)
}
