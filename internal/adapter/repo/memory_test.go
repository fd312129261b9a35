package repo

import (
	"context"
	"testing"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

func seedJob(t *testing.T, store *MemoryStore) *domain.BatchJob {
	t.Helper()
	job := &domain.BatchJob{
		ID:           "job-1",
		Status:       domain.BatchQueued,
		CurrentStage: domain.StageDeconstruct,
		Items: map[string]domain.Variation{
			"item-1": {ID: "item-1", Index: 0, State: domain.ItemQueued},
			"item-2": {ID: "item-2", Index: 1, State: domain.ItemQueued},
		},
		ItemOrder: []string{"item-1", "item-2"},
		Total:     2,
	}
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestMergePatchesOnlyNamedFields(t *testing.T) {
	store := NewMemoryStore()
	seedJob(t, store)
	ctx := context.Background()

	running := domain.BatchRunning
	if err := store.Merge(ctx, "job-1", domain.JobPatch{Status: &running}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.BatchRunning {
		t.Fatalf("status = %s, want running", got.Status)
	}
	if got.CurrentStage != domain.StageDeconstruct {
		t.Fatalf("unpatched stage changed: %s", got.CurrentStage)
	}
	if len(got.Items) != 2 {
		t.Fatalf("unpatched items changed: %d", len(got.Items))
	}
}

// Two writers patching different items must not clobber each other's
// updates; the store merges per key, never wholesale.
func TestMergeInterleavedItemWriters(t *testing.T) {
	store := NewMemoryStore()
	seedJob(t, store)
	ctx := context.Background()

	if err := store.Merge(ctx, "job-1", domain.JobPatch{
		Items: map[string]domain.Variation{"item-1": {ID: "item-1", State: domain.ItemGenerating}},
	}); err != nil {
		t.Fatalf("Merge item-1: %v", err)
	}
	if err := store.Merge(ctx, "job-1", domain.JobPatch{
		Items: map[string]domain.Variation{"item-2": {ID: "item-2", State: domain.ItemReady, UploadedRef: "generated/videos/job-1/v2.mp4"}},
	}); err != nil {
		t.Fatalf("Merge item-2: %v", err)
	}

	got, _ := store.Get(ctx, "job-1")
	if got.Items["item-1"].State != domain.ItemGenerating {
		t.Fatalf("item-1 state lost: %s", got.Items["item-1"].State)
	}
	if got.Items["item-2"].State != domain.ItemReady {
		t.Fatalf("item-2 state lost: %s", got.Items["item-2"].State)
	}
}

func TestMergeAppendsValidatedRefs(t *testing.T) {
	store := NewMemoryStore()
	seedJob(t, store)
	ctx := context.Background()

	_ = store.Merge(ctx, "job-1", domain.JobPatch{ValidatedRefs: []string{"a.mp4"}})
	_ = store.Merge(ctx, "job-1", domain.JobPatch{ValidatedRefs: []string{"b.mp4"}})

	got, _ := store.Get(ctx, "job-1")
	if len(got.ValidatedRefs) != 2 {
		t.Fatalf("validated refs = %v, want 2 entries", got.ValidatedRefs)
	}
}

func TestMergeUnknownJob(t *testing.T) {
	store := NewMemoryStore()
	running := domain.BatchRunning
	if err := store.Merge(context.Background(), "nope", domain.JobPatch{Status: &running}); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	seedJob(t, store)
	ctx := context.Background()

	first, _ := store.Get(ctx, "job-1")
	first.Items["item-1"] = domain.Variation{ID: "item-1", State: domain.ItemFailed}

	second, _ := store.Get(ctx, "job-1")
	if second.Items["item-1"].State == domain.ItemFailed {
		t.Fatal("mutating a returned job leaked into the store")
	}
}
