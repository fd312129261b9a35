package decision

import (
	"errors"
	"reflect"
	"testing"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/registry"
)

func healthyEnv() domain.EnvironmentSnapshot {
	return domain.EnvironmentSnapshot{
		Available:   true,
		FFmpegReady: true,
		Hardware:    domain.Hardware{Cores: 8, RAMMB: 16384},
		LatencyMS:   12,
	}
}

func allCredentials() domain.CredentialSet {
	return domain.CredentialSet{
		"veo_api_key":    "k",
		"runway_api_key": "k",
		"kling_api_key":  "k",
		"luma_api_key":   "k",
		"pika_api_key":   "k",
		"wan_api_key":    "k",
	}
}

func TestLocalFirstShortCircuit(t *testing.T) {
	scorer := NewScorer(registry.New(registry.DefaultCatalog()))

	res, err := scorer.SelectEngine(domain.DecisionContext{
		Env:         healthyEnv(),
		Operation:   domain.CapTrim,
		CostTier:    domain.CostPremium,
		Credentials: allCredentials(),
	})
	if err != nil {
		t.Fatalf("SelectEngine: %v", err)
	}
	if !res.LocalPolicy {
		t.Fatal("expected local-first policy flag")
	}
	if res.Engine.ID != domain.EngineLocalCPU {
		t.Fatalf("expected local-cpu, got %s", res.Engine.ID)
	}
	if res.EstimatedCost != 0 {
		t.Fatalf("local-first cost must be zero, got %v", res.EstimatedCost)
	}
}

func TestLocalFirstPicksGPUVariant(t *testing.T) {
	scorer := NewScorer(registry.New(registry.DefaultCatalog()))
	env := healthyEnv()
	env.Hardware.GPUFlags = []string{"nvenc"}

	res, err := scorer.SelectEngine(domain.DecisionContext{Env: env, Operation: domain.CapOverlay})
	if err != nil {
		t.Fatalf("SelectEngine: %v", err)
	}
	if res.Engine.ID != domain.EngineLocalGPU {
		t.Fatalf("expected local-gpu, got %s", res.Engine.ID)
	}
}

// Local-first is a hard policy, not a preference: a generation operation the
// node cannot natively handle must not short-circuit even when healthy.
func TestNoShortCircuitForGeneration(t *testing.T) {
	scorer := NewScorer(registry.New(registry.DefaultCatalog()))

	res, err := scorer.SelectEngine(domain.DecisionContext{
		Env:               healthyEnv(),
		Operation:         domain.CapImageToVideo,
		HasReferenceImage: true,
		CostTier:          domain.CostPremium,
		Credentials:       allCredentials(),
		DurationSeconds:   8,
	})
	if err != nil {
		t.Fatalf("SelectEngine: %v", err)
	}
	if res.LocalPolicy {
		t.Fatal("image-to-video must not take the local-first path")
	}
}

func TestDeterministicRanking(t *testing.T) {
	scorer := NewScorer(registry.New(registry.DefaultCatalog()))
	ctx := domain.DecisionContext{
		Env:             domain.EnvironmentSnapshot{},
		Operation:       domain.CapTextToVideo,
		Quality:         domain.TierBalanced,
		CostTier:        domain.CostAIChooses,
		Credentials:     allCredentials(),
		DurationSeconds: 10,
	}

	first, err := scorer.SelectEngine(ctx)
	if err != nil {
		t.Fatalf("SelectEngine: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := scorer.SelectEngine(ctx)
		if err != nil {
			t.Fatalf("SelectEngine: %v", err)
		}
		if again.Engine.ID != first.Engine.ID {
			t.Fatalf("non-deterministic choice: %s vs %s", again.Engine.ID, first.Engine.ID)
		}
		if !reflect.DeepEqual(again.Alternatives, first.Alternatives) {
			t.Fatal("non-deterministic alternative order")
		}
	}
}

func TestBudgetTierContainment(t *testing.T) {
	scorer := NewScorer(registry.New(registry.DefaultCatalog()))

	res, err := scorer.SelectEngine(domain.DecisionContext{
		Env:             domain.EnvironmentSnapshot{},
		Operation:       domain.CapTextToVideo,
		CostTier:        domain.CostBudget,
		Credentials:     allCredentials(),
		DurationSeconds: 10,
	})
	if err != nil {
		t.Fatalf("SelectEngine: %v", err)
	}
	candidates := append([]domain.ScoredEngine{{Engine: res.Engine, Score: res.Score}}, res.Alternatives...)
	for _, c := range candidates {
		if engineCostClass(c.Engine) == domain.CostPremium {
			t.Fatalf("premium engine %s returned under budget constraint", c.Engine.ID)
		}
	}
}

func TestAlternativesCapped(t *testing.T) {
	scorer := NewScorer(registry.New(registry.DefaultCatalog()))

	res, err := scorer.SelectEngine(domain.DecisionContext{
		Env:             domain.EnvironmentSnapshot{},
		Operation:       domain.CapTextToVideo,
		CostTier:        domain.CostPremium,
		Credentials:     allCredentials(),
		DurationSeconds: 5,
	})
	if err != nil {
		t.Fatalf("SelectEngine: %v", err)
	}
	if len(res.Alternatives) > 3 {
		t.Fatalf("expected at most 3 alternatives, got %d", len(res.Alternatives))
	}
}

func TestFallbackFloor(t *testing.T) {
	scorer := NewScorer(registry.New(registry.DefaultCatalog()))

	// Empty credentials and a down render node: nothing survives filtering,
	// so the lowest-priority free-tier engine is returned, not an error.
	res, err := scorer.SelectEngine(domain.DecisionContext{
		Env:             domain.EnvironmentSnapshot{},
		Operation:       domain.CapTextToVideo,
		CostTier:        domain.CostPremium,
		Credentials:     domain.CredentialSet{},
		DurationSeconds: 10,
	})
	if err != nil {
		t.Fatalf("SelectEngine: %v", err)
	}
	if res.Engine.ID != "wan-lite" {
		t.Fatalf("expected wan-lite fallback, got %s", res.Engine.ID)
	}
	if res.EstimatedCost != 0 {
		t.Fatalf("fallback cost must be zero, got %v", res.EstimatedCost)
	}
}

func TestConfigurationErrorWithoutFreeTier(t *testing.T) {
	scorer := NewScorer(registry.New(nil))

	_, err := scorer.SelectEngine(domain.DecisionContext{
		Operation:   domain.CapTextToVideo,
		Credentials: domain.CredentialSet{},
	})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.ErrKindConfiguration {
		t.Fatalf("expected configuration_error, got %v", err)
	}
}

func TestMinDurationFilter(t *testing.T) {
	scorer := NewScorer(registry.New(registry.DefaultCatalog()))

	// 30-second request: engines only need to support min(30, 10) seconds,
	// so 10-second engines stay in; veo-3 (8s max) is filtered out.
	res, err := scorer.SelectEngine(domain.DecisionContext{
		Env:             domain.EnvironmentSnapshot{},
		Operation:       domain.CapTextToVideo,
		Quality:         domain.TierCinematic,
		CostTier:        domain.CostPremium,
		Credentials:     allCredentials(),
		DurationSeconds: 30,
	})
	if err != nil {
		t.Fatalf("SelectEngine: %v", err)
	}
	candidates := append([]domain.ScoredEngine{{Engine: res.Engine}}, res.Alternatives...)
	for _, c := range candidates {
		if c.Engine.ID == "veo-3" {
			t.Fatal("veo-3 supports only 8s and must be filtered for a 10s floor")
		}
	}
	if res.EstimatedSeconds > 30 {
		t.Fatalf("estimated duration must be capped at the request, got %d", res.EstimatedSeconds)
	}
}
