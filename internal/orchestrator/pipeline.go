package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/infra/metrics"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/notify"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/providers/engine"
)

// variationAngles rewrite the base prompt into distinct creative directions,
// cycled by item index.
var variationAngles = []string{
	"bold product close-up",
	"lifestyle scene with people",
	"fast-cut montage",
	"minimal studio backdrop",
	"user testimonial framing",
}

// batchRun is the single-goroutine execution of one batch. At most one
// stage-step executes at a time per batch; independent batches run on
// separate pool workers with no shared mutable state beyond the job record.
type batchRun struct {
	o     *Orchestrator
	jobID string
	job   *domain.BatchJob
	// writeCtx survives the batch deadline so terminal states and the
	// timeout sweep can still be persisted.
	writeCtx context.Context
	decision *domain.DecisionResult
}

func (o *Orchestrator) runBatch(parent context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(parent, o.cfg.BatchTimeout)
	defer cancel()
	writeCtx := context.WithoutCancel(parent)

	job, err := o.store.Get(writeCtx, jobID)
	if err != nil {
		return fmt.Errorf("load batch %s: %w", jobID, err)
	}
	run := &batchRun{o: o, jobID: jobID, job: job, writeCtx: writeCtx}
	return run.execute(ctx)
}

func (r *batchRun) execute(ctx context.Context) error {
	running := domain.BatchRunning
	if err := r.o.store.Merge(r.writeCtx, r.jobID, domain.JobPatch{Status: &running}); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	r.job.Status = running

	if err := r.decide(); err != nil {
		// A fatal configuration error aborts the whole batch before any
		// item progresses.
		return r.abortConfiguration(domain.AsError(err))
	}

	for _, stage := range domain.PipelineStages {
		if ctx.Err() != nil {
			break
		}
		r.enterStage(stage)
		start := time.Now()
		switch stage {
		case domain.StageDeconstruct:
			r.deconstruct()
		case domain.StageRewrite:
			r.rewrite()
		case domain.StageVoicePrep:
			// Voice track content comes from an external collaborator; the
			// stage is a synchronization checkpoint here.
		case domain.StageVideoDispatch, domain.StageEncode:
			if stage == domain.StageVideoDispatch {
				r.dispatchAndEncode(ctx)
			}
		case domain.StageMusicSync:
			r.transformLiveItems(ctx, domain.CapAudioMix, map[string]string{"track": "auto"})
		case domain.StageSubtitleBurn:
			r.transformLiveItems(ctx, domain.CapSubtitleBurn, map[string]string{"lang": "auto"})
		case domain.StageExport:
			r.transformLiveItems(ctx, domain.CapTransform, nil)
		case domain.StageUpload, domain.StageURLValidate:
			if stage == domain.StageUpload {
				r.uploadAndValidate(ctx)
			}
		case domain.StageComplete:
			// Aggregation happens in finalize below.
		}
		metrics.ObserveStage(string(stage), time.Since(start).Seconds())
		r.completeStage(stage)
	}

	if ctx.Err() != nil {
		r.timeoutSweep()
	}
	return r.finalize()
}

// decide runs the scorer once per batch against the current environment
// snapshot and the configured credential set.
func (r *batchRun) decide() error {
	spec := r.job.Spec
	dctx := domain.DecisionContext{
		Env:               r.o.snapshots.Snapshot(),
		Operation:         operationFor(spec),
		Quality:           spec.Quality,
		CostTier:          spec.CostTier,
		Credentials:       r.o.cfg.Credentials,
		DurationSeconds:   spec.DurationSeconds,
		Platform:          spec.Platform,
		Market:            firstOf(spec.Markets),
		Mode:              spec.Mode,
		HasReferenceImage: spec.ReferenceImage != "",
		HasSourceVideo:    spec.SourceVideo != "",
	}
	result, err := r.o.scorer.SelectEngine(dctx)
	if err != nil {
		return err
	}
	r.decision = result
	policy := "scored"
	if result.LocalPolicy {
		policy = "local-first"
	} else if strings.HasPrefix(result.Justification, "fallback") {
		policy = "fallback"
	}
	metrics.IncDecision(string(result.Engine.ID), policy)
	r.o.logger.Info().
		Str("job_id", r.jobID).
		Str("engine", string(result.Engine.ID)).
		Str("policy", policy).
		Float64("estimated_cost", result.EstimatedCost).
		Msg("orchestrator: engine selected")
	return r.o.store.Merge(r.writeCtx, r.jobID, domain.JobPatch{Decision: result})
}

// deconstruct derives each item's generation brief from the batch sources.
func (r *batchRun) deconstruct() {
	spec := r.job.Spec
	base := strings.TrimSpace(spec.Prompt)
	if base == "" && len(spec.SourceRefs) > 0 {
		base = "variation derived from " + spec.SourceRefs[0]
	}
	for _, id := range r.job.ItemOrder {
		item := r.job.Items[id]
		item.Prompt = base
		r.patchItem(item)
	}
}

// rewrite applies a distinct creative angle per variation.
func (r *batchRun) rewrite() {
	for _, id := range r.job.ItemOrder {
		item := r.job.Items[id]
		angle := variationAngles[item.Index%len(variationAngles)]
		item.Prompt = strings.TrimSpace(item.Prompt + ", " + angle)
		r.patchItem(item)
	}
}

// dispatchAndEncode runs the first item-scoped window: engine dispatch in
// creation order, async handles polled round-robin, then per-item encode.
// Completion order is not guaranteed; an item with more retries finishes
// after one created later.
func (r *batchRun) dispatchAndEncode(ctx context.Context) {
	type pendingTask struct {
		itemID   string
		taskID   string
		failures int
	}
	var pending []pendingTask

	for _, id := range r.job.ItemOrder {
		if ctx.Err() != nil {
			return
		}
		item := r.job.Items[id]
		if item.State.Terminal() {
			continue
		}
		r.setState(&item, domain.ItemGenerating)

		req := engine.InvokeRequest{
			ItemID:          item.ID,
			Prompt:          item.Prompt,
			DurationSeconds: r.decision.EstimatedSeconds,
			AspectRatio:     item.Ratio,
			Format:          item.Format,
			ReferenceImage:  r.job.Spec.ReferenceImage,
			SourceVideo:     r.job.Spec.SourceVideo,
		}
		var res *engine.Result
		attempts, derr := r.o.cfg.Retry.run(ctx, func(attempt int) error {
			if attempt > 1 {
				metrics.IncRetry(string(domain.StageVideoDispatch))
			}
			var err error
			res, err = r.o.invoker.Invoke(ctx, r.decision.Engine, req)
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			metrics.IncDispatch(string(r.decision.Engine.ID), outcome)
			return err
		})
		item.Retries = attempts - 1
		if derr != nil {
			r.failItem(&item, derr)
			continue
		}
		if res.Pending() {
			item.GeneratedRef = ""
			r.patchItem(item)
			pending = append(pending, pendingTask{itemID: item.ID, taskID: res.TaskID})
			continue
		}
		ref, derr := r.resolveRef(ctx, item, res)
		if derr != nil {
			r.failItem(&item, derr)
			continue
		}
		item.GeneratedRef = ref
		r.patchItem(item)
		r.encodeItem(ctx, item.ID)
	}

	for len(pending) > 0 && ctx.Err() == nil {
		var still []pendingTask
		for _, task := range pending {
			if ctx.Err() != nil {
				return
			}
			res, done, err := r.o.invoker.Poll(ctx, r.decision.Engine, task.taskID)
			item := r.job.Items[task.itemID]
			switch {
			case err != nil:
				derr := domain.AsError(err)
				task.failures++
				if derr.Retryable && task.failures < r.o.cfg.Retry.MaxAttempts {
					metrics.IncRetry(string(domain.StageVideoDispatch))
					item.Retries = task.failures
					r.patchItem(item)
					still = append(still, task)
					continue
				}
				r.failItem(&item, derr.Exhausted())
			case !done:
				still = append(still, task)
			default:
				ref, derr := r.resolveRef(ctx, item, res)
				if derr != nil {
					r.failItem(&item, derr)
					continue
				}
				item.GeneratedRef = ref
				r.patchItem(item)
				r.encodeItem(ctx, item.ID)
			}
		}
		pending = still
		if len(pending) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.o.cfg.PollInterval):
		}
	}
}

// resolveRef turns an invocation result into an artifact reference. Inline
// bytes are persisted to the artifact store under an internal key.
func (r *batchRun) resolveRef(ctx context.Context, item domain.Variation, res *engine.Result) (string, *domain.Error) {
	if len(res.Data) == 0 {
		if res.ArtifactRef == "" {
			return "", domain.ArtifactError("engine returned neither a reference nor data for item %s", item.ID).Exhausted()
		}
		return res.ArtifactRef, nil
	}
	if r.o.artifacts == nil {
		return "", domain.ConfigurationError("engine returned inline data but no artifact store is configured")
	}
	key := fmt.Sprintf("generated/videos/%s/%s%s", r.jobID, item.ID, extFor(item.Format))
	written, err := r.o.artifacts.Write(ctx, key, res.Data)
	if err != nil {
		return "", domain.ArtifactError("persist artifact for item %s: %v", item.ID, err)
	}
	return written, nil
}

func extFor(format string) string {
	switch format {
	case "video/webm":
		return ".webm"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	default:
		return ".mp4"
	}
}

// encodeItem normalizes the generated artifact to the item's target ratio
// and format on the render node. Without a node (or for artifacts the
// choosing engine already finalized) the reference passes through.
func (r *batchRun) encodeItem(ctx context.Context, itemID string) {
	item := r.job.Items[itemID]
	if item.State.Terminal() {
		return
	}
	r.setState(&item, domain.ItemEncoding)

	if r.o.transformer == nil || r.decision.Engine.Local() || !r.o.snapshots.Snapshot().FFmpegReady {
		item.EncodedRef = item.GeneratedRef
		r.patchItem(item)
		return
	}

	var encoded string
	_, derr := r.o.cfg.Retry.run(ctx, func(attempt int) error {
		if attempt > 1 {
			metrics.IncRetry(string(domain.StageEncode))
		}
		var err error
		encoded, err = r.o.transformer.Transform(ctx, domain.CapResize, item.GeneratedRef, map[string]string{
			"ratio":  item.Ratio,
			"format": item.Format,
		})
		return err
	})
	if derr != nil {
		r.failItem(&item, derr)
		return
	}
	item.EncodedRef = encoded
	r.patchItem(item)
}

// transformLiveItems applies one render-node operation to every non-terminal
// item. Without a node the stage passes artifacts through; a per-item
// failure never aborts sibling items.
func (r *batchRun) transformLiveItems(ctx context.Context, op domain.Capability, params map[string]string) {
	for _, id := range r.job.ItemOrder {
		if ctx.Err() != nil {
			return
		}
		item := r.job.Items[id]
		if item.State.Terminal() || item.EncodedRef == "" {
			continue
		}
		if r.o.transformer == nil || !r.o.snapshots.Snapshot().FFmpegReady {
			continue
		}
		var out string
		_, derr := r.o.cfg.Retry.run(ctx, func(attempt int) error {
			if attempt > 1 {
				metrics.IncRetry(string(op))
			}
			var err error
			out, err = r.o.transformer.Transform(ctx, op, item.EncodedRef, params)
			return err
		})
		if derr != nil {
			r.failItem(&item, derr)
			continue
		}
		item.EncodedRef = out
		r.patchItem(item)
	}
}

// uploadAndValidate runs the second item-scoped window: publish the artifact
// reference, then confirm it is live before terminal success.
func (r *batchRun) uploadAndValidate(ctx context.Context) {
	for _, id := range r.job.ItemOrder {
		if ctx.Err() != nil {
			return
		}
		item := r.job.Items[id]
		if item.State.Terminal() {
			continue
		}
		r.setState(&item, domain.ItemUploading)
		item.UploadedRef = r.publicRef(item.EncodedRef)
		r.patchItem(item)

		r.setState(&item, domain.ItemValidatingURL)
		if !r.o.validator.Validate(ctx, item.UploadedRef) {
			// The engine reported success but the reference is dead or
			// delayed: a distinct failure cause from the generation call.
			r.failItem(&item, domain.ArtifactError("artifact %s failed validation", item.UploadedRef).Exhausted())
			continue
		}
		r.setState(&item, domain.ItemReady)
		r.o.sink.Notify(r.writeCtx, notify.Event{
			Type: notify.EventItem, JobID: r.jobID,
			ItemID: item.ID, ItemState: domain.ItemReady, At: time.Now(),
		})
		metrics.IncItemTerminal(string(domain.ItemReady), "")
	}
}

// timeoutSweep forces every non-terminal item to timed_out so the batch
// still reaches a terminal status when the hard ceiling fires.
func (r *batchRun) timeoutSweep() {
	for _, id := range r.job.ItemOrder {
		item := r.job.Items[id]
		if item.State.Terminal() {
			continue
		}
		terr := domain.TimeoutError("batch ceiling of %s elapsed in stage %s", r.o.cfg.BatchTimeout, r.job.CurrentStage)
		item.State = domain.ItemTimedOut
		item.LastError = terr
		item.StageEnteredAt = time.Now()
		r.job.Items[item.ID] = item
		r.job.ErrorMap[item.ID] = *terr
		_ = r.o.store.Merge(r.writeCtx, r.jobID, domain.JobPatch{
			Items:    map[string]domain.Variation{item.ID: item},
			ErrorMap: map[string]domain.Error{item.ID: *terr},
		})
		r.o.sink.Notify(r.writeCtx, notify.Event{
			Type: notify.EventItem, JobID: r.jobID,
			ItemID: item.ID, ItemState: domain.ItemTimedOut, Error: terr, At: time.Now(),
		})
		metrics.IncItemTerminal(string(domain.ItemTimedOut), string(domain.ErrKindTimeout))
	}
}

// finalize aggregates item outcomes into the batch's terminal status:
// completed with zero failures, partial when mixed, failed with zero
// successes.
func (r *batchRun) finalize() error {
	ready := 0
	var refs []string
	for _, id := range r.job.ItemOrder {
		item := r.job.Items[id]
		if item.State == domain.ItemReady {
			ready++
			refs = append(refs, item.UploadedRef)
		}
	}

	status := domain.BatchFailed
	switch {
	case ready == r.job.Total:
		status = domain.BatchCompleted
	case ready > 0:
		status = domain.BatchPartial
	}

	patch := domain.JobPatch{
		Status:        &status,
		Completed:     &ready,
		Validated:     &ready,
		ValidatedRefs: refs,
	}
	if err := r.o.store.Merge(r.writeCtx, r.jobID, patch); err != nil {
		return fmt.Errorf("finalize batch %s: %w", r.jobID, err)
	}
	r.o.sink.Notify(r.writeCtx, notify.Event{
		Type: notify.EventTerminal, JobID: r.jobID, Status: status, At: time.Now(),
	})
	metrics.IncBatchTerminal(string(status))
	r.o.logger.Info().
		Str("job_id", r.jobID).
		Str("status", string(status)).
		Int("ready", ready).
		Int("total", r.job.Total).
		Msg("orchestrator: batch terminal")
	return nil
}

// abortConfiguration fails the batch before any item progresses.
func (r *batchRun) abortConfiguration(derr *domain.Error) error {
	failed := domain.BatchFailed
	patch := domain.JobPatch{
		Status:   &failed,
		ErrorMap: map[string]domain.Error{"batch": *derr},
	}
	if err := r.o.store.Merge(r.writeCtx, r.jobID, patch); err != nil {
		return fmt.Errorf("abort batch %s: %w", r.jobID, err)
	}
	r.o.sink.Notify(r.writeCtx, notify.Event{
		Type: notify.EventTerminal, JobID: r.jobID, Status: failed, Error: derr, At: time.Now(),
	})
	metrics.IncBatchTerminal(string(failed))
	return nil
}

// enterStage advances the batch pointer and emits the stage event. Stage
// advancement is sequential and blocking for the whole batch.
func (r *batchRun) enterStage(stage domain.Stage) {
	r.job.CurrentStage = stage
	_ = r.o.store.Merge(r.writeCtx, r.jobID, domain.JobPatch{CurrentStage: &stage})
	r.o.sink.Notify(r.writeCtx, notify.Event{
		Type: notify.EventStage, JobID: r.jobID, Stage: stage, At: time.Now(),
	})
}

func (r *batchRun) completeStage(stage domain.Stage) {
	r.job.StageDone[stage] = true
	_ = r.o.store.Merge(r.writeCtx, r.jobID, domain.JobPatch{StageDone: map[domain.Stage]bool{stage: true}})
}

// setState moves an item forward along the lifecycle and persists it.
func (r *batchRun) setState(item *domain.Variation, state domain.ItemState) {
	item.State = state
	item.StageEnteredAt = time.Now()
	r.patchItem(*item)
}

// patchItem merge-updates a single item; other items and batch fields are
// untouched by the write.
func (r *batchRun) patchItem(item domain.Variation) {
	r.job.Items[item.ID] = item
	_ = r.o.store.Merge(r.writeCtx, r.jobID, domain.JobPatch{
		Items: map[string]domain.Variation{item.ID: item},
	})
}

// failItem records a terminal failure on the item and in the batch error
// map. Sibling items are unaffected.
func (r *batchRun) failItem(item *domain.Variation, derr *domain.Error) {
	state := domain.ItemFailed
	if derr.Kind == domain.ErrKindTimeout {
		state = domain.ItemTimedOut
	}
	item.State = state
	item.LastError = derr
	item.StageEnteredAt = time.Now()
	r.job.Items[item.ID] = *item
	r.job.ErrorMap[item.ID] = *derr
	_ = r.o.store.Merge(r.writeCtx, r.jobID, domain.JobPatch{
		Items:    map[string]domain.Variation{item.ID: *item},
		ErrorMap: map[string]domain.Error{item.ID: *derr},
	})
	r.o.sink.Notify(r.writeCtx, notify.Event{
		Type: notify.EventItem, JobID: r.jobID,
		ItemID: item.ID, ItemState: state, Error: derr, At: time.Now(),
	})
	metrics.IncItemTerminal(string(state), string(derr.Kind))
	r.o.logger.Warn().
		Str("job_id", r.jobID).
		Str("item_id", item.ID).
		Str("kind", string(derr.Kind)).
		Msg("orchestrator: item failed")
}

// publicRef maps internal storage keys to their public URL; remote URLs pass
// through unchanged.
func (r *batchRun) publicRef(ref string) string {
	if ref == "" {
		return ref
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if r.o.cfg.StorageBase == "" {
		return ref
	}
	return strings.TrimRight(r.o.cfg.StorageBase, "/") + "/" + strings.TrimLeft(ref, "/")
}

func operationFor(spec domain.BatchSpec) domain.Capability {
	if spec.Operation != "" {
		return spec.Operation
	}
	switch {
	case spec.ReferenceImage != "":
		return domain.CapImageToVideo
	case spec.SourceVideo != "":
		return domain.CapVideoToVideo
	default:
		return domain.CapTextToVideo
	}
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
