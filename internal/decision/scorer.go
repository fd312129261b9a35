package decision

import (
	"fmt"
	"sort"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/registry"
)

// Scorer ranks capable engines for a decision context. Instances are cheap
// and hold no mutable state beyond the injected registry, so concurrent
// batches and tests can each own one.
type Scorer struct {
	registry *registry.Registry
}

// NewScorer builds a scorer over the given registry.
func NewScorer(reg *registry.Registry) *Scorer {
	return &Scorer{registry: reg}
}

// SelectEngine picks the cheapest capable engine for the context. The
// algorithm is deterministic: identical context and registry snapshot yield
// an identical ranked order.
func (s *Scorer) SelectEngine(ctx domain.DecisionContext) (*domain.DecisionResult, error) {
	duration := normalizeDuration(ctx.DurationSeconds)

	// Hard policy: a healthy local node handling a native operation is never
	// bypassed by a paid engine.
	if localEligible(ctx.Env, ctx.Operation) {
		local, ok := s.registry.LocalVariant(ctx.Env)
		if ok {
			score := s.score(local, ctx)
			return &domain.DecisionResult{
				Engine:           local,
				Score:            score,
				Justification:    fmt.Sprintf("local-first policy: render node healthy and %q is natively handled", ctx.Operation),
				EstimatedCost:    0,
				EstimatedSeconds: estimatedSeconds(duration, local),
				LocalPolicy:      true,
			}, nil
		}
	}

	required := ctx.RequiredCapability()
	minClip := requiredDuration(ctx.DurationSeconds)

	var survivors []domain.EngineDefinition
	for _, e := range s.registry.All() {
		if ctx.Mode != "" && !e.SupportsMode(ctx.Mode) {
			continue
		}
		if !tierAllows(ctx.CostTier, engineCostClass(e)) {
			continue
		}
		if !e.Supports(required) {
			continue
		}
		if e.MaxClipSeconds < minClip {
			continue
		}
		if e.CredentialKey != "" && !ctx.Credentials.Has(e.CredentialKey) {
			continue
		}
		survivors = append(survivors, e)
	}

	if len(survivors) == 0 {
		return s.fallback(ctx, duration)
	}

	ranked := make([]domain.ScoredEngine, 0, len(survivors))
	for _, e := range survivors {
		ranked = append(ranked, domain.ScoredEngine{Engine: e, Score: s.score(e, ctx)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score.Composite != ranked[j].Score.Composite {
			return ranked[i].Score.Composite > ranked[j].Score.Composite
		}
		return ranked[i].Engine.ID < ranked[j].Engine.ID
	})

	chosen := ranked[0]
	alternatives := ranked[1:]
	if len(alternatives) > 3 {
		alternatives = alternatives[:3]
	}

	return &domain.DecisionResult{
		Engine:           chosen.Engine,
		Score:            chosen.Score,
		Alternatives:     alternatives,
		Justification:    fmt.Sprintf("scored %d candidates for %q under %q constraint", len(ranked), required, constraintLabel(ctx.CostTier)),
		EstimatedCost:    chosen.Engine.CostPerUnit * float64(estimatedSeconds(duration, chosen.Engine)),
		EstimatedSeconds: estimatedSeconds(duration, chosen.Engine),
	}, nil
}

// fallback returns the lowest-priority free-tier engine when filtering left
// nothing. A registry with no free-tier entry at all is a configuration
// error, never a silent success.
func (s *Scorer) fallback(ctx domain.DecisionContext, duration int) (*domain.DecisionResult, error) {
	var free *domain.EngineDefinition
	for _, e := range s.registry.All() {
		if !e.Free() {
			continue
		}
		if free == nil || e.Priority < free.Priority {
			candidate := e
			free = &candidate
		}
	}
	if free == nil {
		return nil, domain.ConfigurationError("no engine satisfies the request and the registry has no free-tier fallback")
	}
	return &domain.DecisionResult{
		Engine:           *free,
		Score:            s.score(*free, ctx),
		Justification:    "fallback: no candidate survived filtering, using lowest-priority free-tier engine",
		EstimatedCost:    0,
		EstimatedSeconds: estimatedSeconds(duration, *free),
	}, nil
}

// score computes the bounded factor breakdown and the weighted composite
// `priority + costTerm + qualityTerm`. Composites are comparable only within
// one context.
func (s *Scorer) score(e domain.EngineDefinition, ctx domain.DecisionContext) domain.EngineScore {
	composite := e.Priority + costTerm(e, ctx.CostTier) + qualityTerm(e, ctx.Quality)
	return domain.EngineScore{
		Cost:         clamp01(1 - e.CostPerUnit/0.5),
		Quality:      qualityFactor(e.Tier),
		Latency:      latencyFactor(e, ctx.Env),
		Availability: availabilityFactor(e, ctx.Env),
		Composite:    composite,
	}
}

func costTerm(e domain.EngineDefinition, constraint domain.CostTier) float64 {
	switch constraint {
	case domain.CostFree:
		if e.Free() {
			return 50
		}
		return 0
	case domain.CostBudget:
		term := 50 - e.CostPerUnit*100
		if term < 0 {
			return 0
		}
		return term
	case domain.CostAIChooses:
		// Value blend: cheap engines keep most of the reward without
		// excluding premium ones outright.
		return 100 - e.CostPerUnit*100
	default:
		term := 20 - e.CostPerUnit*20
		if term < 0 {
			return 0
		}
		return term
	}
}

// qualityTerm rewards a tier match against the requested preference.
// Cinematic is weighted highest since visual fidelity is the least
// substitutable factor.
func qualityTerm(e domain.EngineDefinition, requested domain.QualityTier) float64 {
	if requested == "" || e.Tier != requested {
		return 0
	}
	switch requested {
	case domain.TierFast:
		return 25
	case domain.TierBalanced:
		return 20
	case domain.TierCinematic:
		return 30
	}
	return 0
}

func qualityFactor(tier domain.QualityTier) float64 {
	switch tier {
	case domain.TierCinematic:
		return 1
	case domain.TierBalanced:
		return 0.8
	default:
		return 0.6
	}
}

func latencyFactor(e domain.EngineDefinition, env domain.EnvironmentSnapshot) float64 {
	if e.Local() {
		return clamp01(1 - float64(env.LatencyMS)/1000)
	}
	if e.SupportsMode(domain.ModeSync) {
		return 0.7
	}
	return 0.5
}

func availabilityFactor(e domain.EngineDefinition, env domain.EnvironmentSnapshot) float64 {
	if !e.Available {
		return 0
	}
	if e.Local() {
		if !env.Available {
			return 0
		}
		return clamp01(1 - float64(env.QueueDepth)/10)
	}
	return 1
}

func estimatedSeconds(requested int, e domain.EngineDefinition) int {
	if e.MaxClipSeconds > 0 && requested > e.MaxClipSeconds {
		return e.MaxClipSeconds
	}
	return requested
}

func constraintLabel(t domain.CostTier) string {
	if t == "" {
		return "unconstrained"
	}
	return string(t)
}
