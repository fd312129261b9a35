package repo

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// MemoryStore is an in-memory domain.JobStore with the same merge semantics
// as the PostgreSQL store. Used by tests and single-node development runs.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.BatchJob
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*domain.BatchJob)}
}

// Create inserts a deep copy of the job.
func (s *MemoryStore) Create(_ context.Context, job *domain.BatchJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return domain.ErrStoreConflict
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// Get returns a deep copy of the job.
func (s *MemoryStore) Get(_ context.Context, jobID string) (*domain.BatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneJob(job), nil
}

// Merge applies a partial patch under the store lock, mirroring the atomic
// UPDATE of the PostgreSQL implementation.
func (s *MemoryStore) Merge(_ context.Context, jobID string, patch domain.JobPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.CurrentStage != nil {
		job.CurrentStage = *patch.CurrentStage
	}
	if len(patch.StageDone) > 0 {
		if job.StageDone == nil {
			job.StageDone = make(map[domain.Stage]bool)
		}
		for k, v := range patch.StageDone {
			job.StageDone[k] = v
		}
	}
	if len(patch.Items) > 0 {
		if job.Items == nil {
			job.Items = make(map[string]domain.Variation)
		}
		for k, v := range patch.Items {
			job.Items[k] = v
		}
	}
	if len(patch.ErrorMap) > 0 {
		if job.ErrorMap == nil {
			job.ErrorMap = make(map[string]domain.Error)
		}
		for k, v := range patch.ErrorMap {
			job.ErrorMap[k] = v
		}
	}
	if len(patch.ValidatedRefs) > 0 {
		job.ValidatedRefs = append(job.ValidatedRefs, patch.ValidatedRefs...)
	}
	if patch.Completed != nil {
		job.Completed = *patch.Completed
	}
	if patch.Validated != nil {
		job.Validated = *patch.Validated
	}
	if patch.Decision != nil {
		job.Decision = patch.Decision
	}
	job.UpdatedAt = time.Now()
	return nil
}

// cloneJob deep-copies through JSON; batch records are small and this keeps
// copy semantics identical to the wire representation.
func cloneJob(job *domain.BatchJob) *domain.BatchJob {
	raw, err := json.Marshal(job)
	if err != nil {
		return job
	}
	var out domain.BatchJob
	if err := json.Unmarshal(raw, &out); err != nil {
		return job
	}
	return &out
}

var _ domain.JobStore = (*MemoryStore)(nil)
