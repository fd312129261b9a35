package domain

import "context"

// JobStore defines persistence for batch jobs. Implementations must apply
// Merge as an atomic partial patch by id; the orchestrator never assumes
// exclusive-lock semantics from the store.
type JobStore interface {
	Create(ctx context.Context, job *BatchJob) error
	Get(ctx context.Context, jobID string) (*BatchJob, error)
	Merge(ctx context.Context, jobID string, patch JobPatch) error
}
