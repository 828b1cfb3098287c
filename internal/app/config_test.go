package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "LOG_MODE", "REDIS_ADDR", "MAX_UPLOAD_SIZE", "LLM_MAX_RETRIES", "CONVERSATION_TTL"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.Port != "8080" {
		t.Fatalf("port: want=8080 got=%q", cfg.Port)
	}
	if cfg.LogMode != "development" || cfg.Production() {
		t.Fatalf("mode: got=%q production=%v", cfg.LogMode, cfg.Production())
	}
	if cfg.RedisEnabled() {
		t.Fatal("redis should be off without REDIS_ADDR")
	}
	if cfg.MaxUploadSize != defaultMaxUploadSize {
		t.Fatalf("max upload: got=%d", cfg.MaxUploadSize)
	}
	if cfg.Gateway.MaxRetries != 3 || cfg.Gateway.CallTimeout != 2*time.Minute {
		t.Fatalf("gateway: got=%+v", cfg.Gateway)
	}
	if cfg.ConversationTTL != 24*time.Hour {
		t.Fatalf("conversation ttl: got=%v", cfg.ConversationTTL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_MODE", "")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LLM_MAX_RETRIES", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := LoadConfig()
	if !cfg.Production() || cfg.LogMode != "production" {
		t.Fatalf("production: got env=%q mode=%q", cfg.Env, cfg.LogMode)
	}
	if !cfg.RedisEnabled() {
		t.Fatal("redis should be on")
	}
	if cfg.Gateway.MaxRetries != 5 {
		t.Fatalf("retries: want=5 got=%d", cfg.Gateway.MaxRetries)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: got=%v", cfg.CORSOrigins)
	}
}
