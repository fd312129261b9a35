// Package orchestrator drives variation batches through the fixed pipeline:
// batch-level stages advance sequentially, item-scoped stages advance
// item-by-item, failures retry against a bounded budget, and a hard batch
// timeout guarantees every run terminates.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/decision"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/notify"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/providers/engine"
)

const (
	defaultRatio  = "9:16"
	defaultFormat = "video/mp4"
	maxQuantity   = 20
)

// SnapshotProvider yields the last-known render node state. The orchestrator
// never blocks waiting for a fresh probe.
type SnapshotProvider interface {
	Snapshot() domain.EnvironmentSnapshot
}

// ArtifactValidator confirms a produced reference before terminal success.
type ArtifactValidator interface {
	Validate(ctx context.Context, ref string) bool
}

// ArtifactStore persists raw bytes for engines that return the artifact
// inline instead of hosting it. The returned key is an internal storage key.
type ArtifactStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Config carries the deployment-tunable pipeline ceilings. The source
// defaults are a 10-minute batch ceiling and a 2-second poll interval.
type Config struct {
	Retry        RetryPolicy
	BatchTimeout time.Duration
	PollInterval time.Duration
	Credentials  domain.CredentialSet
	StorageBase  string
}

func (c Config) normalized() Config {
	c.Retry = c.Retry.normalized()
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 10 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	return c
}

// Orchestrator owns its scorer and optimizer instances; nothing here is a
// process-wide singleton, so concurrent batches and tests run independent
// copies.
type Orchestrator struct {
	store       domain.JobStore
	scorer      *decision.Scorer
	invoker     engine.Invoker
	transformer engine.Transformer
	validator   ArtifactValidator
	artifacts   ArtifactStore
	snapshots   SnapshotProvider
	sink        notify.Sink
	pool        *Pool
	cfg         Config
	logger      zerolog.Logger
}

// New wires an orchestrator. transformer may be nil when no render node is
// deployed; post-processing stages then pass artifacts through unchanged.
// artifacts may be nil when every configured engine hosts its own output.
func New(
	store domain.JobStore,
	scorer *decision.Scorer,
	invoker engine.Invoker,
	transformer engine.Transformer,
	validator ArtifactValidator,
	artifacts ArtifactStore,
	snapshots SnapshotProvider,
	sink notify.Sink,
	pool *Pool,
	cfg Config,
	logger zerolog.Logger,
) *Orchestrator {
	if sink == nil {
		sink = notify.Nop{}
	}
	return &Orchestrator{
		store:       store,
		scorer:      scorer,
		invoker:     invoker,
		transformer: transformer,
		validator:   validator,
		artifacts:   artifacts,
		snapshots:   snapshots,
		sink:        sink,
		pool:        pool,
		cfg:         cfg.normalized(),
		logger:      logger,
	}
}

// Submit validates the spec, persists the queued batch, and schedules the
// run as a background task. It returns immediately; progress is pollable
// through Status.
func (o *Orchestrator) Submit(ctx context.Context, spec domain.BatchSpec) (string, error) {
	if err := validateSpec(spec); err != nil {
		return "", err
	}

	now := time.Now()
	job := &domain.BatchJob{
		ID:           uuid.NewString(),
		Spec:         spec,
		Status:       domain.BatchQueued,
		CurrentStage: domain.StageDeconstruct,
		StageDone:    map[domain.Stage]bool{},
		Items:        make(map[string]domain.Variation, spec.Quantity),
		ErrorMap:     map[string]domain.Error{},
		Total:        spec.Quantity,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i := 0; i < spec.Quantity; i++ {
		item := domain.Variation{
			ID:             uuid.NewString(),
			Index:          i,
			Ratio:          pick(spec.Ratios, i, defaultRatio),
			Format:         pick(spec.Formats, i, defaultFormat),
			State:          domain.ItemQueued,
			StageEnteredAt: now,
		}
		job.Items[item.ID] = item
		job.ItemOrder = append(job.ItemOrder, item.ID)
	}

	if err := o.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("persist batch: %w", err)
	}

	jobID := job.ID
	if err := o.pool.Submit(func(taskCtx context.Context) error {
		return o.runBatch(taskCtx, jobID)
	}); err != nil {
		return "", fmt.Errorf("schedule batch: %w", err)
	}
	o.logger.Info().Str("job_id", jobID).Int("quantity", spec.Quantity).Msg("orchestrator: batch submitted")
	return jobID, nil
}

// StatusView is the caller-facing progress report.
type StatusView struct {
	JobID           string                      `json:"job_id"`
	Status          domain.BatchStatus          `json:"status"`
	CurrentStage    domain.Stage                `json:"current_stage"`
	CompletedStages []domain.Stage              `json:"completed_stages"`
	Items           map[string]domain.ItemState `json:"items"`
	Progress        float64                     `json:"progress"`
	ValidatedRefs   []string                    `json:"validated_artifact_refs"`
	ErrorMap        map[string]domain.Error     `json:"error_map"`
	Decision        *domain.DecisionResult      `json:"decision,omitempty"`
}

// Status reports the batch's current stage, per-item states, and aggregate
// progress.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*StatusView, error) {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	view := &StatusView{
		JobID:         job.ID,
		Status:        job.Status,
		CurrentStage:  job.CurrentStage,
		Items:         make(map[string]domain.ItemState, len(job.Items)),
		ValidatedRefs: job.ValidatedRefs,
		ErrorMap:      job.ErrorMap,
		Decision:      job.Decision,
	}
	for _, stage := range domain.PipelineStages {
		if job.StageDone[stage] {
			view.CompletedStages = append(view.CompletedStages, stage)
		}
	}
	terminal := 0
	for id, item := range job.Items {
		view.Items[id] = item.State
		if item.State.Terminal() {
			terminal++
		}
	}
	if job.Total > 0 {
		view.Progress = float64(terminal) / float64(job.Total)
	}
	return view, nil
}

func validateSpec(spec domain.BatchSpec) error {
	if spec.Quantity <= 0 {
		return domain.ValidationError("quantity must be positive")
	}
	if spec.Quantity > maxQuantity {
		return domain.ValidationError("quantity %d exceeds the per-batch limit of %d", spec.Quantity, maxQuantity)
	}
	if strings.TrimSpace(spec.Prompt) == "" && spec.SourceVideo == "" && len(spec.SourceRefs) == 0 {
		return domain.ValidationError("a prompt or source content reference is required")
	}
	for _, ratio := range spec.Ratios {
		if !validRatio(ratio) {
			return domain.ValidationError("unsupported aspect ratio %q", ratio)
		}
	}
	return nil
}

func validRatio(ratio string) bool {
	switch ratio {
	case "9:16", "16:9", "1:1", "4:5":
		return true
	default:
		return false
	}
}

func pick(values []string, i int, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return values[i%len(values)]
}
