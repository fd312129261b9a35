package domain

// Capability is an operation type an engine can perform.
type Capability string

const (
	CapTextToVideo  Capability = "text-to-video"
	CapImageToVideo Capability = "image-to-video"
	CapVideoToVideo Capability = "video-to-video"

	CapTrim         Capability = "trim"
	CapConcat       Capability = "concat"
	CapOverlay      Capability = "overlay"
	CapResize       Capability = "resize"
	CapAudioMix     Capability = "audio-mix"
	CapFilter       Capability = "filter"
	CapSubtitleBurn Capability = "subtitle-burn"
	CapSpeed        Capability = "speed"
	CapFade         Capability = "fade"
	CapRender       Capability = "render"
	CapTransform    Capability = "transform"
)

// QualityTier enumerates output quality classes an engine targets.
type QualityTier string

const (
	TierFast      QualityTier = "fast"
	TierBalanced  QualityTier = "balanced"
	TierCinematic QualityTier = "cinematic"
)

// CostTier is the caller's cost constraint. Tiers are cumulative: budget
// includes free, premium includes everything, ai-chooses includes everything
// but scores toward value.
type CostTier string

const (
	CostFree      CostTier = "free"
	CostBudget    CostTier = "budget"
	CostPremium   CostTier = "premium"
	CostAIChooses CostTier = "ai-chooses"
)

// ExecutionMode describes how an engine accepts work.
type ExecutionMode string

const (
	ModeSync  ExecutionMode = "sync"
	ModeAsync ExecutionMode = "async"
)

// EngineID identifies a catalog entry.
type EngineID string

// Local engine variants backed by the self-hosted render node.
const (
	EngineLocalCPU EngineID = "local-cpu"
	EngineLocalGPU EngineID = "local-gpu"
)

// EngineDefinition is an immutable catalog entry describing a generation
// backend and its attributes. Entries are configuration data; the registry
// never mutates them at runtime.
type EngineDefinition struct {
	ID             EngineID        `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	Operation      string          `yaml:"operation" json:"operation"`
	CostPerUnit    float64         `yaml:"cost_per_unit" json:"cost_per_unit"`
	Tier           QualityTier     `yaml:"tier" json:"tier"`
	Capabilities   []Capability    `yaml:"capabilities" json:"capabilities"`
	Modes          []ExecutionMode `yaml:"modes" json:"modes"`
	MaxClipSeconds int             `yaml:"max_clip_seconds" json:"max_clip_seconds"`
	Priority       float64         `yaml:"priority" json:"priority"`
	Available      bool            `yaml:"available" json:"available"`
	CredentialKey  string          `yaml:"credential_key" json:"credential_key"`
	Endpoint       string          `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// Local reports whether the definition is one of the self-hosted variants.
func (e EngineDefinition) Local() bool {
	return e.ID == EngineLocalCPU || e.ID == EngineLocalGPU
}

// Free reports whether invoking the engine carries no per-unit cost.
func (e EngineDefinition) Free() bool {
	return e.CostPerUnit == 0
}

// Supports reports whether the engine's capability set contains cap.
func (e EngineDefinition) Supports(cap Capability) bool {
	for _, c := range e.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// SupportsMode reports whether the engine accepts the given execution mode.
func (e EngineDefinition) SupportsMode(mode ExecutionMode) bool {
	for _, m := range e.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// NativeCapabilities is the fixed set of operations the local render node
// handles deterministically. When the node is healthy and the requested
// operation is in this set, the decision policy never routes to a paid
// engine.
var NativeCapabilities = []Capability{
	CapTrim, CapConcat, CapOverlay, CapResize, CapAudioMix,
	CapFilter, CapSubtitleBurn, CapSpeed, CapFade, CapRender, CapTransform,
}

// NativelyHandled reports whether cap belongs to the local node's native set.
func NativelyHandled(cap Capability) bool {
	for _, c := range NativeCapabilities {
		if c == cap {
			return true
		}
	}
	return false
}
