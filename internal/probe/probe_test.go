package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

func TestProbeHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available":true,"ffmpeg_ready":true,"hardware":{"cores":8,"ram_mb":16384,"gpu_flags":["nvenc"]},"queue_depth":2}`))
	}))
	defer srv.Close()

	snap := New(srv.URL, srv.Client()).Probe(context.Background())
	if !snap.Available || !snap.FFmpegReady {
		t.Fatalf("expected healthy snapshot, got %+v", snap)
	}
	if snap.Hardware.Cores != 8 || len(snap.Hardware.GPUFlags) != 1 {
		t.Fatalf("unexpected hardware: %+v", snap.Hardware)
	}
	if snap.QueueDepth != 2 {
		t.Fatalf("unexpected queue depth: %d", snap.QueueDepth)
	}
	if !snap.GPUReady() {
		t.Fatal("expected GPUReady")
	}
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force connection refused

	snap := New(srv.URL, nil).Probe(context.Background())
	if snap.Available {
		t.Fatalf("expected unavailable snapshot, got %+v", snap)
	}
}

func TestProbeNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	snap := New(srv.URL, srv.Client()).Probe(context.Background())
	if snap.Available {
		t.Fatal("expected unavailable snapshot for 503")
	}
}

func TestRefresherHoldsSnapshot(t *testing.T) {
	r := NewRefresher(New("", nil), 0, zerolog.Nop())
	want := domain.EnvironmentSnapshot{Available: true, FFmpegReady: true}
	r.Set(want)
	got := r.Snapshot()
	if got.Available != want.Available || got.FFmpegReady != want.FFmpegReady {
		t.Fatalf("snapshot mismatch: %+v", got)
	}
}
