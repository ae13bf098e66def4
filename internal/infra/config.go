package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// StorageBackendFile keeps uploads on the local filesystem.
	StorageBackendFile = "file"
	// StorageBackendGCS uploads to a Google Cloud Storage bucket.
	StorageBackendGCS = "gcs"

	// ArtifactStoreMemory holds pending catalogs in process memory.
	ArtifactStoreMemory = "memory"
	// ArtifactStoreRedis holds pending catalogs in Redis so that a pool of
	// API processes can share them.
	ArtifactStoreRedis = "redis"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	StorageBackend string
	StoragePath    string
	StorageBaseURL string
	GCSBucket      string
	GCSCDNDomain   string

	ArtifactStore         string
	RedisAddr             string
	ArtifactTTL           time.Duration
	ArtifactSweepInterval time.Duration

	RendererBaseURL string
	RendererAPIKey  string

	WhatsAppAccountSID string
	WhatsAppAuthToken  string
	WhatsAppFrom       string
	WhatsAppBaseURL    string

	DeliveryMaxAttempts int
	DeliveryBackoffBase time.Duration

	GeoIPDBPath        string
	CORSAllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageBackendFile),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
		GCSCDNDomain:   os.Getenv("GCS_CDN_DOMAIN"),

		ArtifactStore:         getEnv("ARTIFACT_STORE", ArtifactStoreMemory),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		ArtifactTTL:           time.Minute * time.Duration(getEnvInt("ARTIFACT_TTL_MINUTES", 30)),
		ArtifactSweepInterval: time.Second * time.Duration(getEnvInt("ARTIFACT_SWEEP_SECONDS", 60)),

		RendererBaseURL: os.Getenv("RENDERER_BASE_URL"),
		RendererAPIKey:  os.Getenv("RENDERER_API_KEY"),

		WhatsAppAccountSID: os.Getenv("WHATSAPP_ACCOUNT_SID"),
		WhatsAppAuthToken:  os.Getenv("WHATSAPP_AUTH_TOKEN"),
		WhatsAppFrom:       os.Getenv("WHATSAPP_FROM_NUMBER"),
		WhatsAppBaseURL:    os.Getenv("WHATSAPP_BASE_URL"),

		DeliveryMaxAttempts: getEnvInt("DELIVERY_MAX_ATTEMPTS", 3),
		DeliveryBackoffBase: time.Millisecond * time.Duration(getEnvInt("DELIVERY_BACKOFF_MS", 2000)),

		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.StorageBackend {
	case StorageBackendFile:
	case StorageBackendGCS:
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required when STORAGE_BACKEND=gcs")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	switch cfg.ArtifactStore {
	case ArtifactStoreMemory:
	case ArtifactStoreRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when ARTIFACT_STORE=redis")
		}
	default:
		return nil, fmt.Errorf("unsupported ARTIFACT_STORE %q", cfg.ArtifactStore)
	}

	if cfg.ArtifactTTL <= 0 {
		return nil, fmt.Errorf("ARTIFACT_TTL_MINUTES must be positive")
	}
	if cfg.DeliveryMaxAttempts < 1 {
		return nil, fmt.Errorf("DELIVERY_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
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

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
