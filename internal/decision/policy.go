// Package decision implements engine selection for variation batches: a
// deterministic scorer ranking capable engines and a companion cost
// optimizer. Both are pure over their inputs; environment snapshot freshness
// is the caller's responsibility.
package decision

import "github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"

// budgetCeiling is the per-unit cost boundary between the budget and premium
// engine classes.
const budgetCeiling = 0.10

// edgeFallbackRate is the fixed low-cost rate assumed when neither the local
// node nor any credentialed paid engine can serve a request.
const edgeFallbackRate = 0.02

// minDurationFloor caps the duration an engine must support; longer outputs
// are segmented by the caller, not here.
const minDurationFloor = 10

// localEligible is the hard local-first policy shared by the scorer and the
// optimizer: the render node is available and ready, and the operation is in
// its natively-handled set. When it holds, free deterministic processing is
// never bypassed by a paid engine.
func localEligible(env domain.EnvironmentSnapshot, op domain.Capability) bool {
	return env.Available && env.FFmpegReady && domain.NativelyHandled(op)
}

// engineCostClass buckets an engine by unit cost.
func engineCostClass(e domain.EngineDefinition) domain.CostTier {
	switch {
	case e.CostPerUnit == 0:
		return domain.CostFree
	case e.CostPerUnit <= budgetCeiling:
		return domain.CostBudget
	default:
		return domain.CostPremium
	}
}

// tierAllows reports whether the caller's cost constraint admits an engine of
// the given class. Tiers are cumulative: budget includes free, premium and
// ai-chooses include everything.
func tierAllows(constraint domain.CostTier, class domain.CostTier) bool {
	switch constraint {
	case domain.CostFree:
		return class == domain.CostFree
	case domain.CostBudget:
		return class == domain.CostFree || class == domain.CostBudget
	case domain.CostPremium, domain.CostAIChooses:
		return true
	default:
		// Unspecified constraint behaves like premium: no exclusion.
		return true
	}
}

// requiredDuration is the minimum clip length an engine must support.
func requiredDuration(requested int) int {
	if requested <= 0 {
		requested = minDurationFloor
	}
	if requested < minDurationFloor {
		return requested
	}
	return minDurationFloor
}

// normalizeDuration applies the default clip length to unset requests.
func normalizeDuration(requested int) int {
	if requested <= 0 {
		return minDurationFloor
	}
	return requested
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
