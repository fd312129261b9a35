package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

func TestByCapability(t *testing.T) {
	r := New(DefaultCatalog())

	engines := r.ByCapability(domain.CapImageToVideo)
	if len(engines) == 0 {
		t.Fatalf("expected image-to-video engines")
	}
	for _, e := range engines {
		if !e.Supports(domain.CapImageToVideo) {
			t.Fatalf("engine %s does not support image-to-video", e.ID)
		}
	}

	trim := r.ByCapability(domain.CapTrim)
	for _, e := range trim {
		if !e.Local() {
			t.Fatalf("expected only local engines for trim, got %s", e.ID)
		}
	}
}

func TestAllSkipsUnavailable(t *testing.T) {
	catalog := DefaultCatalog()
	catalog[0].Available = false
	r := New(catalog)
	for _, e := range r.All() {
		if e.ID == catalog[0].ID {
			t.Fatalf("unavailable engine %s returned by All", e.ID)
		}
	}
}

func TestLocalVariant(t *testing.T) {
	r := New(DefaultCatalog())

	cpu, ok := r.LocalVariant(domain.EnvironmentSnapshot{})
	if !ok || cpu.ID != domain.EngineLocalCPU {
		t.Fatalf("expected local-cpu, got %v ok=%v", cpu.ID, ok)
	}

	env := domain.EnvironmentSnapshot{Hardware: domain.Hardware{GPUFlags: []string{"nvenc"}}}
	gpu, ok := r.LocalVariant(env)
	if !ok || gpu.ID != domain.EngineLocalGPU {
		t.Fatalf("expected local-gpu, got %v ok=%v", gpu.ID, ok)
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engines.yaml")
	data := `engines:
  - id: test-engine
    name: Test Engine
    operation: generate
    cost_per_unit: 0.02
    tier: fast
    capabilities: [text-to-video]
    modes: [sync]
    max_clip_seconds: 5
    priority: 10
    available: true
    credential_key: test_key
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	engines, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(engines) != 1 || engines[0].ID != "test-engine" {
		t.Fatalf("unexpected engines: %+v", engines)
	}
	if engines[0].CostPerUnit != 0.02 {
		t.Fatalf("unexpected cost: %v", engines[0].CostPerUnit)
	}
}

func TestLoadCatalogRejectsMissingDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engines.yaml")
	data := `engines:
  - id: broken
    name: Broken
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for missing max clip duration")
	}
}
