package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaultStorageBaseURL(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:8080/static"
	if cfg.StorageBaseURL != expected {
		t.Fatalf("StorageBaseURL mismatch: got %q want %q", cfg.StorageBaseURL, expected)
	}
}

func TestLoadConfigInheritsPortInStorageBaseURL(t *testing.T) {
	t.Setenv("PORT", "1919")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:1919/static"
	if cfg.StorageBaseURL != expected {
		t.Fatalf("StorageBaseURL mismatch: got %q want %q", cfg.StorageBaseURL, expected)
	}
}

func TestLoadConfigPipelineDefaults(t *testing.T) {
	t.Setenv("ENGINE_RETRY_MAX_ATTEMPTS", "")
	t.Setenv("BATCH_TIMEOUT_SECONDS", "")
	t.Setenv("TASK_POLL_SECONDS", "")
	t.Setenv("VALIDATION_MAX_ATTEMPTS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.EngineRetryMaxAttempts != 3 {
		t.Fatalf("EngineRetryMaxAttempts = %d, want 3", cfg.EngineRetryMaxAttempts)
	}
	if cfg.BatchTimeout != 10*time.Minute {
		t.Fatalf("BatchTimeout = %s, want 10m", cfg.BatchTimeout)
	}
	if cfg.TaskPollInterval != 2*time.Second {
		t.Fatalf("TaskPollInterval = %s, want 2s", cfg.TaskPollInterval)
	}
	if cfg.ValidationMaxAttempts != 5 {
		t.Fatalf("ValidationMaxAttempts = %d, want 5", cfg.ValidationMaxAttempts)
	}
}

func TestLoadConfigOverridesCeilings(t *testing.T) {
	t.Setenv("BATCH_TIMEOUT_SECONDS", "90")
	t.Setenv("ENGINE_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("ENGINE_RETRY_BACKOFF_MS", "50")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BatchTimeout != 90*time.Second {
		t.Fatalf("BatchTimeout = %s, want 90s", cfg.BatchTimeout)
	}
	if cfg.EngineRetryMaxAttempts != 5 {
		t.Fatalf("EngineRetryMaxAttempts = %d, want 5", cfg.EngineRetryMaxAttempts)
	}
	if cfg.EngineRetryBackoff != 50*time.Millisecond {
		t.Fatalf("EngineRetryBackoff = %s, want 50ms", cfg.EngineRetryBackoff)
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("VEO_API_KEY", "veo-secret")
	t.Setenv("PIKA_API_KEY", "")

	set := CredentialsFromEnv([]string{"VEO_API_KEY", "PIKA_API_KEY", ""})
	if !set.Has("VEO_API_KEY") {
		t.Fatalf("expected VEO_API_KEY to be present")
	}
	if set.Has("PIKA_API_KEY") {
		t.Fatalf("empty credential must count as absent")
	}
}
