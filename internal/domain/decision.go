package domain

// Hardware describes the render node's reported host resources.
type Hardware struct {
	Cores    int      `json:"cores"`
	RAMMB    int      `json:"ram_mb"`
	GPUFlags []string `json:"gpu_flags"`
}

// EnvironmentSnapshot is the last-known state of the local render node. It is
// refreshed by a best-effort periodic probe and treated as eventually
// consistent; consumers must tolerate staleness.
type EnvironmentSnapshot struct {
	Available   bool     `json:"available"`
	FFmpegReady bool     `json:"ffmpeg_ready"`
	Hardware    Hardware `json:"hardware"`
	QueueDepth  int      `json:"queue_depth"`
	LatencyMS   int      `json:"latency_ms"`
}

// GPUReady reports whether the node advertises a usable hardware encoder.
func (s EnvironmentSnapshot) GPUReady() bool {
	return len(s.Hardware.GPUFlags) > 0
}

// CredentialSet maps credential keys to secrets. The decision layer only
// inspects key presence; secrets flow to the invocation layer.
type CredentialSet map[string]string

// Has reports whether the set contains a non-empty credential for key.
func (c CredentialSet) Has(key string) bool {
	if key == "" {
		return false
	}
	return c[key] != ""
}

// DecisionContext carries everything the scorer needs for one selection. It
// is ephemeral; composite scores are comparable only within the same context.
type DecisionContext struct {
	Env             EnvironmentSnapshot
	Operation       Capability
	Quality         QualityTier
	CostTier        CostTier
	Credentials     CredentialSet
	UserTier        string
	DurationSeconds int
	Platform        string
	Market          string
	Mode            ExecutionMode

	// Input shape, used to infer the required generation capability.
	HasReferenceImage bool
	HasSourceVideo    bool
}

// RequiredCapability infers the generation capability from the input shape:
// a reference image forces image-to-video, a source video forces
// video-to-video, otherwise text-to-video.
func (c DecisionContext) RequiredCapability() Capability {
	switch {
	case c.HasReferenceImage:
		return CapImageToVideo
	case c.HasSourceVideo:
		return CapVideoToVideo
	default:
		return CapTextToVideo
	}
}

// EngineScore holds the normalized per-factor breakdown and the weighted
// composite. Factors are bounded to [0,1]; the composite is not.
type EngineScore struct {
	Cost         float64 `json:"cost"`
	Quality      float64 `json:"quality"`
	Latency      float64 `json:"latency"`
	Availability float64 `json:"availability"`
	Composite    float64 `json:"composite"`
}

// ScoredEngine pairs a candidate with its score for ranked output.
type ScoredEngine struct {
	Engine EngineDefinition `json:"engine"`
	Score  EngineScore      `json:"score"`
}

// DecisionResult is the scorer's answer: the chosen engine, its score
// breakdown, up to three runner-up candidates, and a human-readable
// justification naming the policy path taken.
type DecisionResult struct {
	Engine           EngineDefinition `json:"engine"`
	Score            EngineScore      `json:"score"`
	Alternatives     []ScoredEngine   `json:"alternatives,omitempty"`
	Justification    string           `json:"justification"`
	EstimatedCost    float64          `json:"estimated_cost"`
	EstimatedSeconds int              `json:"estimated_seconds"`
	LocalPolicy      bool             `json:"local_policy"`
}

// Cost strategies reported by the optimizer.
const (
	StrategyLocalFirst    = "local-first"
	StrategyCloudFallback = "cloud-fallback"
	StrategyEdgeFallback  = "edge-fallback"
)

// EstimateInput feeds the cost optimizer.
type EstimateInput struct {
	Env             EnvironmentSnapshot
	Operation       Capability
	Quantity        int
	DurationSeconds int
	Credentials     CredentialSet

	HasReferenceImage bool
	HasSourceVideo    bool
}

// CostLine is one engine's contribution to the estimate breakdown.
type CostLine struct {
	EngineID  EngineID `json:"engine_id"`
	Name      string   `json:"name"`
	UnitCost  float64  `json:"unit_cost"`
	Total     float64  `json:"total"`
	Reachable bool     `json:"reachable"`
	Free      bool     `json:"free"`
}

// CostEstimate is the optimizer's projection for a batch.
type CostEstimate struct {
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	Optimized float64    `json:"optimized"`
	Breakdown []CostLine `json:"breakdown"`
	Strategy  string     `json:"strategy"`
	FreeCount int        `json:"free_count"`
	PaidCount int        `json:"paid_count"`
}
