package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// LocalClient talks to the self-hosted render node. The node processes
// synchronously: renders and transforms return a finished storage key, so
// Poll is never exercised for local engines.
type LocalClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewLocalClient builds a render node client.
func NewLocalClient(baseURL string, client *http.Client, logger zerolog.Logger) *LocalClient {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &LocalClient{baseURL: strings.TrimRight(baseURL, "/"), client: client, logger: logger}
}

type renderPayload struct {
	Prompt          string            `json:"prompt,omitempty"`
	Operation       string            `json:"operation"`
	SourceRef       string            `json:"source_ref,omitempty"`
	DurationSeconds int               `json:"duration_seconds,omitempty"`
	AspectRatio     string            `json:"aspect_ratio,omitempty"`
	Format          string            `json:"format,omitempty"`
	Params          map[string]string `json:"params,omitempty"`
	RequestID       string            `json:"request_id,omitempty"`
	GPU             bool              `json:"gpu,omitempty"`
}

type renderResponse struct {
	StorageKey string `json:"storage_key"`
	Format     string `json:"format"`
	Error      string `json:"error"`
}

// Invoke renders a variation on the node.
func (l *LocalClient) Invoke(ctx context.Context, eng domain.EngineDefinition, req InvokeRequest) (*Result, error) {
	resp, err := l.post(ctx, "/render", renderPayload{
		Prompt:          req.Prompt,
		Operation:       "render",
		SourceRef:       req.SourceVideo,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		Format:          req.Format,
		RequestID:       req.ItemID,
		GPU:             eng.ID == domain.EngineLocalGPU,
	})
	if err != nil {
		return nil, err
	}
	return &Result{ArtifactRef: resp.StorageKey, Format: resp.Format}, nil
}

// Poll satisfies Invoker; the node never hands out task ids.
func (l *LocalClient) Poll(ctx context.Context, eng domain.EngineDefinition, taskID string) (*Result, bool, error) {
	return nil, true, domain.EngineError("render node does not issue task handles (got %s)", taskID)
}

// Transform applies one deterministic operation to an existing artifact and
// returns the new storage key.
func (l *LocalClient) Transform(ctx context.Context, op domain.Capability, ref string, params map[string]string) (string, error) {
	resp, err := l.post(ctx, "/transform", renderPayload{
		Operation: string(op),
		SourceRef: ref,
		Params:    params,
	})
	if err != nil {
		return "", err
	}
	return resp.StorageKey, nil
}

func (l *LocalClient) post(ctx context.Context, path string, payload renderPayload) (*renderResponse, error) {
	if l.baseURL == "" {
		return nil, domain.EngineError("render node url not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.EngineError("encode render payload: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, domain.EngineError("build render request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, domain.EngineError("render node %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.EngineError("render node %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.EngineError("decode render response: %v", err)
	}
	if out.StorageKey == "" {
		return nil, domain.EngineError("render node %s returned no storage key", path)
	}
	l.logger.Debug().Str("path", path).Str("storage_key", out.StorageKey).Msg("engine: render node call ok")
	return &out, nil
}

var (
	_ Invoker     = (*LocalClient)(nil)
	_ Transformer = (*LocalClient)(nil)
)
