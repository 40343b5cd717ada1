package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service
type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string
	MaxUploadBytes int64

	// LLM gateway (OpenAI-compatible chat completions)
	LLMGatewayURL  string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMTimeout     time.Duration
	LLMMaxRetries  uint64
	UseMockLLM     bool

	// Transcription
	TranscribeURL     string
	TranscribeAPIKey  string
	TranscribeTimeout time.Duration
	UseMockTranscribe bool

	// Pipeline
	StageWorkers       int
	MetricsRepairRetry bool

	// Result cache
	CacheMaxEntries int
	CacheTTL        time.Duration
}

// Load loads configuration from a .env file (if present) and environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8000"),
		Environment:       getEnv("ENVIRONMENT", "local"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		LLMGatewayURL:     getEnv("LLM_GATEWAY_URL", "https://api.openai.com/v1/chat/completions"),
		LLMAPIKey:         getEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		LLMModel:          getEnv("LLM_MODEL", "gpt-3.5-turbo"),
		TranscribeURL:     getEnv("TRANSCRIBE_URL", "https://api.assemblyai.com/v2"),
		TranscribeAPIKey:  getEnv("TRANSCRIBE_API_KEY", os.Getenv("ASSEMBLYAI_API_KEY")),
		UseMockLLM:        getEnv("USE_MOCK_LLM", "false") == "true",
		UseMockTranscribe: getEnv("USE_MOCK_TRANSCRIBE", "false") == "true",
	}
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	var err error
	if cfg.LLMTemperature, err = strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.2"), 64); err != nil {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
	}
	if cfg.LLMMaxTokens, err = strconv.Atoi(getEnv("LLM_MAX_TOKENS", "800")); err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_TOKENS: %w", err)
	}
	llmTimeout, err := strconv.Atoi(getEnv("LLM_TIMEOUT_SEC", "45"))
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT_SEC: %w", err)
	}
	cfg.LLMTimeout = time.Duration(llmTimeout) * time.Second
	if cfg.LLMMaxRetries, err = strconv.ParseUint(getEnv("LLM_MAX_RETRIES", "0"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	trTimeout, err := strconv.Atoi(getEnv("TRANSCRIBE_TIMEOUT_SEC", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSCRIBE_TIMEOUT_SEC: %w", err)
	}
	cfg.TranscribeTimeout = time.Duration(trTimeout) * time.Second

	if cfg.StageWorkers, err = strconv.Atoi(getEnv("STAGE_WORKERS", "3")); err != nil {
		return nil, fmt.Errorf("invalid STAGE_WORKERS: %w", err)
	}
	if cfg.StageWorkers < 1 {
		return nil, fmt.Errorf("invalid STAGE_WORKERS: must be >= 1, got %d", cfg.StageWorkers)
	}
	if cfg.MetricsRepairRetry, err = strconv.ParseBool(getEnv("METRICS_REPAIR_RETRY", "false")); err != nil {
		return nil, fmt.Errorf("invalid METRICS_REPAIR_RETRY: %w", err)
	}

	if cfg.CacheMaxEntries, err = strconv.Atoi(getEnv("CACHE_MAX_ENTRIES", "50")); err != nil {
		return nil, fmt.Errorf("invalid CACHE_MAX_ENTRIES: %w", err)
	}
	ttlHours, err := strconv.ParseFloat(getEnv("CACHE_TTL_HOURS", "24"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_HOURS: %w", err)
	}
	cfg.CacheTTL = time.Duration(ttlHours * float64(time.Hour))

	maxMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}
	cfg.MaxUploadBytes = int64(maxMB) << 20

	return cfg, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
