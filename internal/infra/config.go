package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// State backends the agent can persist through.
const (
	StateBackendPostgres = "postgres"
	StateBackendRedis    = "redis"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv       string
	Port         string
	StateBackend string
	DatabaseURL  string
	RedisURL     string
	StoragePath  string

	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiTextModel   string
	GeminiSpeechModel string
	GeminiImageModel  string
	GeminiVideoModel  string

	TickInterval      time.Duration
	SegmentDelay      time.Duration
	VideoPollInterval time.Duration
	VideoTimeout      time.Duration
	LedgerRetention   time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		Port:         getEnv("PORT", "8080"),
		StateBackend: getEnv("STATE_BACKEND", StateBackendPostgres),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		StoragePath:  getEnv("STORAGE_PATH", "./storage"),

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiTextModel:   getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiSpeechModel: getEnv("GEMINI_SPEECH_MODEL", "gemini-2.5-flash-native-audio-preview-09-2025"),
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "imagen-4.0-generate-001"),
		GeminiVideoModel:  getEnv("GEMINI_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),

		TickInterval:      time.Second * time.Duration(getEnvInt("TICK_INTERVAL_SECONDS", 30)),
		SegmentDelay:      time.Millisecond * time.Duration(getEnvInt("SEGMENT_DELAY_MILLIS", 250)),
		VideoPollInterval: time.Second * time.Duration(getEnvInt("VIDEO_POLL_SECONDS", 5)),
		VideoTimeout:      time.Minute * time.Duration(getEnvInt("VIDEO_TIMEOUT_MINUTES", 10)),
		LedgerRetention:   time.Hour * 24 * time.Duration(getEnvInt("LEDGER_RETENTION_DAYS", 14)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	switch cfg.StateBackend {
	case StateBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STATE_BACKEND=postgres")
		}
	case StateBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STATE_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("unsupported STATE_BACKEND %q", cfg.StateBackend)
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
