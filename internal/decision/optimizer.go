package decision

import (
	"sort"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/registry"
)

// Optimizer projects batch cost ranges consistent with the scorer's policy:
// the local-first short-circuit is the same predicate in both.
type Optimizer struct {
	registry *registry.Registry
}

// NewOptimizer builds an optimizer over the given registry.
func NewOptimizer(reg *registry.Registry) *Optimizer {
	return &Optimizer{registry: reg}
}

// Estimate returns min/max/optimized cost projections for a batch along with
// the strategy label and the free/paid item split.
func (o *Optimizer) Estimate(in domain.EstimateInput) domain.CostEstimate {
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	required := requiredGenerationCapability(in)
	minClip := requiredDuration(in.DurationSeconds)

	// Paid engines the caller's credential set can actually reach.
	var reachablePaid []domain.EngineDefinition
	var breakdown []domain.CostLine
	maxUnit := 0.0
	for _, e := range o.registry.All() {
		if e.Local() {
			continue
		}
		if !e.Supports(required) || e.MaxClipSeconds < minClip {
			continue
		}
		reachable := e.CredentialKey == "" || in.Credentials.Has(e.CredentialKey)
		breakdown = append(breakdown, domain.CostLine{
			EngineID:  e.ID,
			Name:      e.Name,
			UnitCost:  e.CostPerUnit,
			Total:     e.CostPerUnit * float64(quantity),
			Reachable: reachable,
			Free:      e.Free(),
		})
		if !reachable {
			continue
		}
		if e.CostPerUnit > maxUnit {
			maxUnit = e.CostPerUnit
		}
		if !e.Free() {
			reachablePaid = append(reachablePaid, e)
		}
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].UnitCost < breakdown[j].UnitCost })
	sort.Slice(reachablePaid, func(i, j int) bool {
		if reachablePaid[i].CostPerUnit != reachablePaid[j].CostPerUnit {
			return reachablePaid[i].CostPerUnit < reachablePaid[j].CostPerUnit
		}
		return reachablePaid[i].ID < reachablePaid[j].ID
	})

	est := domain.CostEstimate{Breakdown: breakdown}
	local := localEligible(in.Env, in.Operation)

	switch {
	case local:
		est.Min = 0
		est.Optimized = 0
		est.Strategy = domain.StrategyLocalFirst
		est.FreeCount = quantity
	case len(reachablePaid) > 0:
		cheapest := reachablePaid[0].CostPerUnit * float64(quantity)
		est.Min = cheapest
		est.Optimized = cheapest
		est.Strategy = domain.StrategyCloudFallback
		est.PaidCount = quantity
	default:
		edge := edgeFallbackRate * float64(quantity)
		est.Min = edge
		est.Optimized = edge
		est.Strategy = domain.StrategyEdgeFallback
		est.PaidCount = quantity
	}

	est.Max = maxUnit * float64(quantity)
	if est.Max < est.Optimized {
		est.Max = est.Optimized
	}
	return est
}

// requiredGenerationCapability mirrors DecisionContext.RequiredCapability for
// estimate inputs.
func requiredGenerationCapability(in domain.EstimateInput) domain.Capability {
	switch {
	case in.HasReferenceImage:
		return domain.CapImageToVideo
	case in.HasSourceVideo:
		return domain.CapVideoToVideo
	default:
		return domain.CapTextToVideo
	}
}
