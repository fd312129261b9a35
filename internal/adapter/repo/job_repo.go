package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// JobRepositoryPG implements domain.JobStore on PostgreSQL. Mutations go
// through Merge, which applies partial patches in a single UPDATE: scalar
// fields via COALESCE, map-valued fields via jsonb concatenation keyed per
// entry, so concurrent progress writers never clobber each other.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a job store backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new batch job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.BatchJob) error {
	spec, err := json.Marshal(job.Spec)
	if err != nil {
		return fmt.Errorf("encode spec: %w", err)
	}
	items, err := json.Marshal(job.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	order, err := json.Marshal(job.ItemOrder)
	if err != nil {
		return fmt.Errorf("encode item order: %w", err)
	}
	query := `
INSERT INTO batch_jobs (id, spec, status, current_stage, stage_done, items, item_order, completed, validated, total, error_map, validated_refs)
VALUES ($1, $2, $3, $4, '{}'::jsonb, $5, $6, 0, 0, $7, '{}'::jsonb, '[]'::jsonb);
`
	_, err = r.pool.Exec(ctx, query,
		job.ID,
		spec,
		job.Status,
		job.CurrentStage,
		items,
		order,
		job.Total,
	)
	return err
}

// Merge applies a partial patch by job id.
func (r *JobRepositoryPG) Merge(ctx context.Context, jobID string, patch domain.JobPatch) error {
	if patch.Empty() {
		return nil
	}
	stageDone, err := jsonOrEmptyObject(patch.StageDone)
	if err != nil {
		return fmt.Errorf("encode stage_done patch: %w", err)
	}
	items, err := jsonOrEmptyObject(patch.Items)
	if err != nil {
		return fmt.Errorf("encode items patch: %w", err)
	}
	errorMap, err := jsonOrEmptyObject(patch.ErrorMap)
	if err != nil {
		return fmt.Errorf("encode error_map patch: %w", err)
	}
	refs, err := jsonOrEmptyArray(patch.ValidatedRefs)
	if err != nil {
		return fmt.Errorf("encode validated_refs patch: %w", err)
	}
	var decision []byte
	if patch.Decision != nil {
		decision, err = json.Marshal(patch.Decision)
		if err != nil {
			return fmt.Errorf("encode decision patch: %w", err)
		}
	}

	query := `
UPDATE batch_jobs
SET status = COALESCE($2, status),
    current_stage = COALESCE($3, current_stage),
    stage_done = stage_done || $4::jsonb,
    items = items || $5::jsonb,
    error_map = error_map || $6::jsonb,
    validated_refs = validated_refs || $7::jsonb,
    completed = COALESCE($8, completed),
    validated = COALESCE($9, validated),
    decision = COALESCE($10, decision),
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query,
		jobID,
		nullableString((*string)(patch.Status)),
		nullableString((*string)(patch.CurrentStage)),
		stageDone,
		items,
		errorMap,
		refs,
		patch.Completed,
		patch.Validated,
		decision,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get fetches a batch job by id.
func (r *JobRepositoryPG) Get(ctx context.Context, jobID string) (*domain.BatchJob, error) {
	query := `
SELECT id, spec, status, current_stage, stage_done, items, item_order, completed, validated, total, error_map, validated_refs, decision, created_at, updated_at
FROM batch_jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var (
		job       domain.BatchJob
		spec      []byte
		stageDone []byte
		items     []byte
		order     []byte
		errorMap  []byte
		refs      []byte
		decision  []byte
	)
	if err := row.Scan(
		&job.ID,
		&spec,
		&job.Status,
		&job.CurrentStage,
		&stageDone,
		&items,
		&order,
		&job.Completed,
		&job.Validated,
		&job.Total,
		&errorMap,
		&refs,
		&decision,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(spec, &job.Spec); err != nil {
		return nil, fmt.Errorf("decode spec: %w", err)
	}
	if err := json.Unmarshal(stageDone, &job.StageDone); err != nil {
		return nil, fmt.Errorf("decode stage_done: %w", err)
	}
	if err := json.Unmarshal(items, &job.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(order, &job.ItemOrder); err != nil {
		return nil, fmt.Errorf("decode item_order: %w", err)
	}
	if err := json.Unmarshal(errorMap, &job.ErrorMap); err != nil {
		return nil, fmt.Errorf("decode error_map: %w", err)
	}
	if err := json.Unmarshal(refs, &job.ValidatedRefs); err != nil {
		return nil, fmt.Errorf("decode validated_refs: %w", err)
	}
	if len(decision) > 0 {
		if err := json.Unmarshal(decision, &job.Decision); err != nil {
			return nil, fmt.Errorf("decode decision: %w", err)
		}
	}
	return &job, nil
}

func jsonOrEmptyObject(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return []byte("{}"), nil
	}
	return raw, nil
}

func jsonOrEmptyArray(v []string) ([]byte, error) {
	if len(v) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

func nullableString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

var _ domain.JobStore = (*JobRepositoryPG)(nil)
