package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// DefaultCatalog returns the built-in engine catalog. Adding an engine is a
// data addition here (or in a catalog file), not a code branch.
func DefaultCatalog() []domain.EngineDefinition {
	gen := []domain.Capability{domain.CapTextToVideo, domain.CapImageToVideo, domain.CapVideoToVideo}
	both := []domain.ExecutionMode{domain.ModeSync, domain.ModeAsync}

	localCaps := append([]domain.Capability{domain.CapTextToVideo}, domain.NativeCapabilities...)

	return []domain.EngineDefinition{
		{
			ID: domain.EngineLocalCPU, Name: "Local Render Node (CPU)", Operation: "render",
			CostPerUnit: 0, Tier: domain.TierFast, Capabilities: localCaps,
			Modes: both, MaxClipSeconds: 600, Priority: 50, Available: true,
		},
		{
			ID: domain.EngineLocalGPU, Name: "Local Render Node (GPU)", Operation: "render",
			CostPerUnit: 0, Tier: domain.TierBalanced, Capabilities: localCaps,
			Modes: both, MaxClipSeconds: 600, Priority: 55, Available: true,
		},
		{
			ID: "veo-3", Name: "Veo 3", Operation: "generate",
			CostPerUnit: 0.35, Tier: domain.TierCinematic, Capabilities: gen,
			Modes: []domain.ExecutionMode{domain.ModeAsync}, MaxClipSeconds: 8,
			Priority: 40, Available: true, CredentialKey: "veo_api_key",
		},
		{
			ID: "runway-gen3", Name: "Runway Gen-3", Operation: "generate",
			CostPerUnit: 0.25, Tier: domain.TierCinematic, Capabilities: gen,
			Modes: both, MaxClipSeconds: 10,
			Priority: 38, Available: true, CredentialKey: "runway_api_key",
		},
		{
			ID: "kling-std", Name: "Kling Standard", Operation: "generate",
			CostPerUnit: 0.10, Tier: domain.TierBalanced,
			Capabilities: []domain.Capability{domain.CapTextToVideo, domain.CapImageToVideo},
			Modes:        []domain.ExecutionMode{domain.ModeAsync}, MaxClipSeconds: 10,
			Priority: 34, Available: true, CredentialKey: "kling_api_key",
		},
		{
			ID: "luma-ray", Name: "Luma Ray", Operation: "generate",
			CostPerUnit: 0.08, Tier: domain.TierBalanced,
			Capabilities: []domain.Capability{domain.CapTextToVideo, domain.CapImageToVideo},
			Modes:        both, MaxClipSeconds: 10,
			Priority: 32, Available: true, CredentialKey: "luma_api_key",
		},
		{
			ID: "pika-turbo", Name: "Pika Turbo", Operation: "generate",
			CostPerUnit: 0.05, Tier: domain.TierFast,
			Capabilities: []domain.Capability{domain.CapTextToVideo, domain.CapImageToVideo},
			Modes:        both, MaxClipSeconds: 10,
			Priority: 30, Available: true, CredentialKey: "pika_api_key",
		},
		{
			ID: "wan-lite", Name: "Wan Lite", Operation: "generate",
			CostPerUnit: 0, Tier: domain.TierFast,
			Capabilities: []domain.Capability{domain.CapTextToVideo},
			Modes:        both, MaxClipSeconds: 6,
			Priority: 20, Available: true, CredentialKey: "wan_api_key",
		},
	}
}

type catalogFile struct {
	Engines []domain.EngineDefinition `yaml:"engines"`
}

// LoadCatalog reads engine definitions from a YAML file. An empty path keeps
// the built-in catalog.
func LoadCatalog(path string) ([]domain.EngineDefinition, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("registry: parse catalog: %w", err)
	}
	if len(f.Engines) == 0 {
		return nil, fmt.Errorf("registry: catalog %s defines no engines", path)
	}
	for i, e := range f.Engines {
		if e.ID == "" {
			return nil, fmt.Errorf("registry: catalog entry %d has no id", i)
		}
		if e.MaxClipSeconds <= 0 {
			return nil, fmt.Errorf("registry: engine %s has no max clip duration", e.ID)
		}
	}
	return f.Engines, nil
}
