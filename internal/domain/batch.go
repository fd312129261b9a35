package domain

import "time"

// Stage identifies one step of the fixed batch pipeline.
type Stage string

const (
	StageDeconstruct   Stage = "deconstruct"
	StageRewrite       Stage = "rewrite"
	StageVoicePrep     Stage = "voice-prep"
	StageVideoDispatch Stage = "video-dispatch"
	StageEncode        Stage = "encode"
	StageMusicSync     Stage = "music-sync"
	StageSubtitleBurn  Stage = "subtitle-burn"
	StageExport        Stage = "export"
	StageUpload        Stage = "upload"
	StageURLValidate   Stage = "url-validate"
	StageComplete      Stage = "complete"
)

// PipelineStages is the fixed stage order every batch runs through.
// Stage N+1 does not start until stage N is complete for the whole batch;
// video-dispatch/encode and upload/url-validate advance item-by-item inside
// their shared windows.
var PipelineStages = []Stage{
	StageDeconstruct,
	StageRewrite,
	StageVoicePrep,
	StageVideoDispatch,
	StageEncode,
	StageMusicSync,
	StageSubtitleBurn,
	StageExport,
	StageUpload,
	StageURLValidate,
	StageComplete,
}

// ItemState is a variation's lifecycle state. Transitions are monotonic
// along queued → generating → encoding → uploading → validating_url → ready,
// with failed and timed_out as distinct terminal failure causes. The only
// backward move is an explicit retry to an earlier stage.
type ItemState string

const (
	ItemQueued        ItemState = "queued"
	ItemGenerating    ItemState = "generating"
	ItemEncoding      ItemState = "encoding"
	ItemUploading     ItemState = "uploading"
	ItemValidatingURL ItemState = "validating_url"
	ItemReady         ItemState = "ready"
	ItemFailed        ItemState = "failed"
	ItemTimedOut      ItemState = "timed_out"
)

// Terminal reports whether the state admits no further transition.
func (s ItemState) Terminal() bool {
	return s == ItemReady || s == ItemFailed || s == ItemTimedOut
}

// Variation is one requested output unit within a batch. Created at batch
// start, mutated through the pipeline, immutable once terminal.
type Variation struct {
	ID             string    `json:"id"`
	Index          int       `json:"index"`
	Ratio          string    `json:"ratio"`
	Format         string    `json:"format"`
	Prompt         string    `json:"prompt"`
	State          ItemState `json:"state"`
	GeneratedRef   string    `json:"generated_ref,omitempty"`
	EncodedRef     string    `json:"encoded_ref,omitempty"`
	UploadedRef    string    `json:"uploaded_ref,omitempty"`
	Retries        int       `json:"retries"`
	LastError      *Error    `json:"last_error,omitempty"`
	StageEnteredAt time.Time `json:"stage_entered_at"`
}

// BatchStatus is the aggregate outcome of a batch.
type BatchStatus string

const (
	BatchQueued    BatchStatus = "queued"
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchPartial   BatchStatus = "partial"
	BatchFailed    BatchStatus = "failed"
)

// Terminal reports whether the batch reached a final status.
func (s BatchStatus) Terminal() bool {
	return s == BatchCompleted || s == BatchPartial || s == BatchFailed
}

// BatchSpec is the caller's submission: what to generate and under which
// constraints.
type BatchSpec struct {
	UserID          string        `json:"user_id,omitempty"`
	Prompt          string        `json:"prompt"`
	SourceRefs      []string      `json:"source_refs,omitempty"`
	ReferenceImage  string        `json:"reference_image,omitempty"`
	SourceVideo     string        `json:"source_video,omitempty"`
	Quantity        int           `json:"quantity"`
	Ratios          []string      `json:"ratios,omitempty"`
	Formats         []string      `json:"formats,omitempty"`
	Operation       Capability    `json:"operation,omitempty"`
	Quality         QualityTier   `json:"quality,omitempty"`
	CostTier        CostTier      `json:"cost_tier,omitempty"`
	Mode            ExecutionMode `json:"mode,omitempty"`
	DurationSeconds int           `json:"duration_seconds,omitempty"`
	Platform        string        `json:"platform,omitempty"`
	Markets         []string      `json:"markets,omitempty"`
}

// BatchJob is the persisted job record: the single shared mutable resource
// of a batch. All writers patch it by id with merge-update semantics.
type BatchJob struct {
	ID            string                `json:"id"`
	Spec          BatchSpec             `json:"spec"`
	Status        BatchStatus           `json:"status"`
	CurrentStage  Stage                 `json:"current_stage"`
	StageDone     map[Stage]bool        `json:"stage_done"`
	Items         map[string]Variation  `json:"items"`
	ItemOrder     []string              `json:"item_order"`
	Completed     int                   `json:"completed"`
	Validated     int                   `json:"validated"`
	Total         int                   `json:"total"`
	ErrorMap      map[string]Error      `json:"error_map"`
	ValidatedRefs []string              `json:"validated_refs"`
	Decision      *DecisionResult       `json:"decision,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ItemsInOrder returns the variations in creation order. Dispatch follows
// this order; completion order is not guaranteed.
func (j *BatchJob) ItemsInOrder() []Variation {
	out := make([]Variation, 0, len(j.ItemOrder))
	for _, id := range j.ItemOrder {
		if it, ok := j.Items[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// JobPatch is a partial update applied to a BatchJob by id. Nil fields are
// left untouched; map entries are merged per key, ValidatedRefs entries are
// appended. Writers never replace the whole record, so concurrent progress
// writers cannot clobber each other's updates.
type JobPatch struct {
	Status        *BatchStatus
	CurrentStage  *Stage
	StageDone     map[Stage]bool
	Items         map[string]Variation
	Completed     *int
	Validated     *int
	ErrorMap      map[string]Error
	ValidatedRefs []string
	Decision      *DecisionResult
}

// Empty reports whether the patch carries no changes.
func (p JobPatch) Empty() bool {
	return p.Status == nil && p.CurrentStage == nil && len(p.StageDone) == 0 &&
		len(p.Items) == 0 && p.Completed == nil && p.Validated == nil &&
		len(p.ErrorMap) == 0 && len(p.ValidatedRefs) == 0 && p.Decision == nil
}
