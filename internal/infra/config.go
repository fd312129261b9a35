package infra

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string

	StorageBaseURL    string
	RenderNodeURL     string
	EngineCatalogPath string
	GeoIPDBPath       string
	EventChannel      string

	EngineRetryMaxAttempts int
	EngineRetryBackoff     time.Duration
	BatchTimeout           time.Duration
	TaskPollInterval       time.Duration
	ValidationMaxAttempts  int
	ValidationRetryDelay   time.Duration
	ProbeInterval          time.Duration
	PipelineWorkers        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL and REDIS_URL are optional: without a
// database the service falls back to the in-memory job store, without Redis
// progress events only go to the log.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        port,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		StorageBaseURL:    getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		RenderNodeURL:     getEnv("RENDER_NODE_URL", "http://localhost:9090"),
		EngineCatalogPath: os.Getenv("ENGINE_CATALOG_PATH"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		EventChannel:      getEnv("EVENT_CHANNEL", "pipeline:events"),

		EngineRetryMaxAttempts: getEnvInt("ENGINE_RETRY_MAX_ATTEMPTS", 3),
		EngineRetryBackoff:     time.Millisecond * time.Duration(getEnvInt("ENGINE_RETRY_BACKOFF_MS", 500)),
		BatchTimeout:           time.Second * time.Duration(getEnvInt("BATCH_TIMEOUT_SECONDS", 600)),
		TaskPollInterval:       time.Second * time.Duration(getEnvInt("TASK_POLL_SECONDS", 2)),
		ValidationMaxAttempts:  getEnvInt("VALIDATION_MAX_ATTEMPTS", 5),
		ValidationRetryDelay:   time.Millisecond * time.Duration(getEnvInt("VALIDATION_RETRY_MS", 1000)),
		ProbeInterval:          time.Second * time.Duration(getEnvInt("PROBE_INTERVAL_SECONDS", 15)),
		PipelineWorkers:        getEnvInt("PIPELINE_WORKERS", 0),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CredentialsFromEnv reads the given credential keys from the environment.
// Missing keys are simply absent from the set; the decision layer treats the
// corresponding engines as unreachable.
func CredentialsFromEnv(keys []string) domain.CredentialSet {
	set := domain.CredentialSet{}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if v := os.Getenv(key); v != "" {
			set[key] = v
		}
	}
	return set
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
