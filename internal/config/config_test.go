package config

import (
	"testing"
	"time"
)

var configKeys = []string{
	"PORT", "ENVIRONMENT", "LOG_LEVEL", "ALLOWED_ORIGINS", "LLM_GATEWAY_URL", "LLM_API_KEY", "OPENAI_API_KEY",
	"LLM_MODEL", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "LLM_TIMEOUT_SEC", "LLM_MAX_RETRIES", "USE_MOCK_LLM",
	"TRANSCRIBE_URL", "TRANSCRIBE_API_KEY", "ASSEMBLYAI_API_KEY", "TRANSCRIBE_TIMEOUT_SEC", "USE_MOCK_TRANSCRIBE",
	"STAGE_WORKERS", "METRICS_REPAIR_RETRY", "CACHE_MAX_ENTRIES", "CACHE_TTL_HOURS", "MAX_UPLOAD_MB",
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "8000" {
					t.Errorf("expected port 8000, got %s", cfg.Port)
				}
				if cfg.LLMTimeout != 45*time.Second {
					t.Errorf("expected LLM timeout 45s, got %v", cfg.LLMTimeout)
				}
				if cfg.LLMMaxTokens != 800 {
					t.Errorf("expected 800 max tokens, got %d", cfg.LLMMaxTokens)
				}
				if cfg.LLMMaxRetries != 0 {
					t.Errorf("expected no LLM retries by default, got %d", cfg.LLMMaxRetries)
				}
				if cfg.CacheMaxEntries != 50 {
					t.Errorf("expected cache capacity 50, got %d", cfg.CacheMaxEntries)
				}
				if cfg.CacheTTL != 24*time.Hour {
					t.Errorf("expected cache ttl 24h, got %v", cfg.CacheTTL)
				}
				if cfg.StageWorkers != 3 {
					t.Errorf("expected 3 stage workers, got %d", cfg.StageWorkers)
				}
				if cfg.MaxUploadBytes != 25<<20 {
					t.Errorf("expected 25MB upload limit, got %d", cfg.MaxUploadBytes)
				}
				if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
					t.Errorf("expected wildcard origin, got %v", cfg.AllowedOrigins)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"PORT":                 "9000",
				"ALLOWED_ORIGINS":      "http://a.test, http://b.test",
				"LLM_TIMEOUT_SEC":      "40",
				"CACHE_TTL_HOURS":      "0.5",
				"USE_MOCK_LLM":         "true",
				"METRICS_REPAIR_RETRY": "true",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "9000" {
					t.Errorf("expected port 9000, got %s", cfg.Port)
				}
				if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
					t.Errorf("expected trimmed origins, got %v", cfg.AllowedOrigins)
				}
				if cfg.LLMTimeout != 40*time.Second {
					t.Errorf("expected 40s, got %v", cfg.LLMTimeout)
				}
				if cfg.CacheTTL != 30*time.Minute {
					t.Errorf("expected 30m ttl, got %v", cfg.CacheTTL)
				}
				if !cfg.UseMockLLM || !cfg.MetricsRepairRetry {
					t.Errorf("expected mock llm and repair retry enabled")
				}
			},
		},
		{
			name: "api key falls back to OPENAI_API_KEY",
			env:  map[string]string{"OPENAI_API_KEY": "sk-test"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.LLMAPIKey != "sk-test" {
					t.Errorf("expected fallback api key, got %q", cfg.LLMAPIKey)
				}
			},
		},
		{
			name:    "invalid LLM_TIMEOUT_SEC",
			env:     map[string]string{"LLM_TIMEOUT_SEC": "soon"},
			wantErr: true,
		},
		{
			name:    "zero stage workers",
			env:     map[string]string{"STAGE_WORKERS": "0"},
			wantErr: true,
		},
		{
			name:    "invalid CACHE_TTL_HOURS",
			env:     map[string]string{"CACHE_TTL_HOURS": "a day"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range configKeys {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}
