// Package probe reports the live status of the local render node. The
// snapshot it produces is best-effort and eventually consistent: the decision
// layer consumes whatever the last successful probe observed and never blocks
// waiting for a fresh one.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// healthResponse mirrors the render node's health endpoint payload.
type healthResponse struct {
	Available   bool `json:"available"`
	FFmpegReady bool `json:"ffmpeg_ready"`
	Hardware    struct {
		Cores    int      `json:"cores"`
		RAMMB    int      `json:"ram_mb"`
		GPUFlags []string `json:"gpu_flags"`
	} `json:"hardware"`
	QueueDepth int `json:"queue_depth"`
}

// Prober performs health calls against the render node.
type Prober struct {
	baseURL string
	client  *http.Client
}

// New builds a prober for the node at baseURL.
func New(baseURL string, client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Prober{baseURL: baseURL, client: client}
}

// Probe performs one health call. An unreachable or unhealthy node is an
// ordinary outcome: it yields an unavailable snapshot, not an error, so a
// down node degrades decisions instead of failing them.
func (p *Prober) Probe(ctx context.Context) domain.EnvironmentSnapshot {
	if p.baseURL == "" {
		return domain.EnvironmentSnapshot{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/healthz", nil)
	if err != nil {
		return domain.EnvironmentSnapshot{}
	}
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.EnvironmentSnapshot{}
	}
	defer resp.Body.Close()

	latency := int(time.Since(start).Milliseconds())
	if resp.StatusCode != http.StatusOK {
		return domain.EnvironmentSnapshot{LatencyMS: latency}
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return domain.EnvironmentSnapshot{LatencyMS: latency}
	}
	return domain.EnvironmentSnapshot{
		Available:   health.Available,
		FFmpegReady: health.FFmpegReady,
		Hardware: domain.Hardware{
			Cores:    health.Hardware.Cores,
			RAMMB:    health.Hardware.RAMMB,
			GPUFlags: health.Hardware.GPUFlags,
		},
		QueueDepth: health.QueueDepth,
		LatencyMS:  latency,
	}
}

// String implements fmt.Stringer for log output.
func (p *Prober) String() string {
	return fmt.Sprintf("probe(%s)", p.baseURL)
}
