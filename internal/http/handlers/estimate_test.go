package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

type stubEstimator struct {
	in  domain.EstimateInput
	out domain.CostEstimate
}

func (s *stubEstimator) Estimate(in domain.EstimateInput) domain.CostEstimate {
	s.in = in
	return s.out
}

func TestEstimateForwardsInputShape(t *testing.T) {
	est := &stubEstimator{out: domain.CostEstimate{Optimized: 0.10, Strategy: domain.StrategyCloudFallback}}
	app := &App{
		Estimator:   est,
		Snapshots:   stubSnapshots{snap: domain.EnvironmentSnapshot{Available: false}},
		Credentials: domain.CredentialSet{"KLING_API_KEY": "k"},
		Logger:      zerolog.Nop(),
	}

	body := `{"quantity":2,"reference_image":"https://cdn.test/ref.png"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.Estimate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !est.in.HasReferenceImage {
		t.Fatalf("reference image flag not forwarded")
	}
	if est.in.Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", est.in.Quantity)
	}
	if !est.in.Credentials.Has("KLING_API_KEY") {
		t.Fatalf("credentials not forwarded")
	}

	var out domain.CostEstimate
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode estimate: %v", err)
	}
	if out.Strategy != domain.StrategyCloudFallback {
		t.Fatalf("strategy = %q", out.Strategy)
	}
}

func TestEstimateRejectsNonPositiveQuantity(t *testing.T) {
	app := &App{Estimator: &stubEstimator{}, Snapshots: stubSnapshots{}, Logger: zerolog.Nop()}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(`{"quantity":0}`))
	rec := httptest.NewRecorder()
	app.Estimate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListEnginesReportsReachability(t *testing.T) {
	app := &App{
		Engines: stubCatalog{engines: []domain.EngineDefinition{
			{ID: "wan-lite", CostPerUnit: 0},
			{ID: "veo-3", CostPerUnit: 0.35, CredentialKey: "VEO_API_KEY"},
		}},
		Credentials: domain.CredentialSet{},
		Snapshots:   stubSnapshots{},
		Logger:      zerolog.Nop(),
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/engines", nil)
	rec := httptest.NewRecorder()
	app.ListEngines(rec, req)

	var resp struct {
		Engines []struct {
			ID        domain.EngineID `json:"id"`
			Reachable bool            `json:"reachable"`
		} `json:"engines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode engines: %v", err)
	}
	if len(resp.Engines) != 2 {
		t.Fatalf("engines = %d, want 2", len(resp.Engines))
	}
	for _, e := range resp.Engines {
		switch e.ID {
		case "wan-lite":
			if !e.Reachable {
				t.Fatalf("free engine must be reachable without credentials")
			}
		case "veo-3":
			if e.Reachable {
				t.Fatalf("paid engine without credential must be unreachable")
			}
		}
	}
}

type stubCatalog struct{ engines []domain.EngineDefinition }

func (s stubCatalog) All() []domain.EngineDefinition { return s.engines }
