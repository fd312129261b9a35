package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// RemoteInvoker calls third-party generation APIs through our normalized
// gateway protocol. Credentials are looked up by the engine's credential key;
// the endpoint comes from the catalog entry.
type RemoteInvoker struct {
	client      *http.Client
	credentials domain.CredentialSet
	logger      zerolog.Logger
}

// NewRemoteInvoker builds an invoker using the given credential set.
func NewRemoteInvoker(client *http.Client, credentials domain.CredentialSet, logger zerolog.Logger) *RemoteInvoker {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &RemoteInvoker{client: client, credentials: credentials, logger: logger}
}

type generatePayload struct {
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	AspectRatio     string `json:"aspect_ratio,omitempty"`
	Format          string `json:"format,omitempty"`
	ReferenceImage  string `json:"reference_image,omitempty"`
	SourceVideo     string `json:"source_video,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
}

type generateResponse struct {
	ArtifactURL string `json:"artifact_url"`
	TaskID      string `json:"task_id"`
	Format      string `json:"format"`
	Status      string `json:"status"`
	Error       string `json:"error"`
}

// Invoke dispatches one generation call. A 200 carries a ready artifact, a
// 202 carries an async task handle; anything else is an engine error.
func (r *RemoteInvoker) Invoke(ctx context.Context, eng domain.EngineDefinition, req InvokeRequest) (*Result, error) {
	if eng.Endpoint == "" {
		return nil, domain.EngineError("engine %s has no endpoint configured", eng.ID)
	}
	body, err := json.Marshal(generatePayload{
		Prompt:          req.Prompt,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		Format:          req.Format,
		ReferenceImage:  req.ReferenceImage,
		SourceVideo:     req.SourceVideo,
		RequestID:       req.ItemID,
	})
	if err != nil {
		return nil, domain.EngineError("encode request for %s: %v", eng.ID, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(eng.Endpoint, "/")+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, domain.EngineError("build request for %s: %v", eng.ID, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	r.authorize(httpReq, eng)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, domain.EngineError("invoke %s: %v", eng.ID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.EngineError("engine %s returned %d: %s", eng.ID, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domain.EngineError("decode response from %s: %v", eng.ID, err)
	}
	if payload.ArtifactURL == "" && payload.TaskID == "" {
		return nil, domain.EngineError("engine %s returned neither artifact nor task handle", eng.ID)
	}
	r.logger.Debug().
		Str("engine", string(eng.ID)).
		Str("item_id", req.ItemID).
		Bool("async", payload.TaskID != "").
		Msg("engine: dispatched")
	return &Result{ArtifactRef: payload.ArtifactURL, TaskID: payload.TaskID, Format: payload.Format}, nil
}

// Poll resolves an async task handle.
func (r *RemoteInvoker) Poll(ctx context.Context, eng domain.EngineDefinition, taskID string) (*Result, bool, error) {
	url := fmt.Sprintf("%s/tasks/%s", strings.TrimRight(eng.Endpoint, "/"), taskID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, true, domain.EngineError("build poll request for %s: %v", eng.ID, err)
	}
	r.authorize(httpReq, eng)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, true, domain.EngineError("poll %s task %s: %v", eng.ID, taskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, true, domain.EngineError("engine %s task %s returned %d", eng.ID, taskID, resp.StatusCode)
	}
	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, true, domain.EngineError("decode poll response from %s: %v", eng.ID, err)
	}
	switch strings.ToLower(payload.Status) {
	case "queued", "running", "processing", "pending":
		return nil, false, nil
	case "failed", "error":
		msg := payload.Error
		if msg == "" {
			msg = "task failed without detail"
		}
		return nil, true, domain.EngineError("engine %s task %s: %s", eng.ID, taskID, msg)
	}
	if payload.ArtifactURL == "" {
		return nil, true, domain.EngineError("engine %s task %s finished without artifact", eng.ID, taskID)
	}
	return &Result{ArtifactRef: payload.ArtifactURL, Format: payload.Format}, true, nil
}

func (r *RemoteInvoker) authorize(req *http.Request, eng domain.EngineDefinition) {
	if eng.CredentialKey == "" {
		return
	}
	if token := r.credentials[eng.CredentialKey]; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
