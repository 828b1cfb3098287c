package app

import (
	"strings"
	"time"

	"github.com/yungbote/trainforge-backend/internal/clients/redis"
	"github.com/yungbote/trainforge-backend/internal/data/db"
	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/observability"
	"github.com/yungbote/trainforge-backend/internal/platform/envutil"
)

const defaultMaxUploadSize = 10 << 20

type Config struct {
	Port    string
	Env     string
	LogMode string

	DB    db.Config
	Redis redis.Config
	// ConversationTTL expires interview and debrief chat history.
	ConversationTTL time.Duration

	Anthropic llm.AnthropicConfig
	OpenAI    llm.OpenAIConfig
	Gateway   llm.GatewayConfig
	AgentsDir string

	MaxUploadSize int64
	CORSOrigins   []string

	Tracing observability.TracingConfig
}

func (c Config) Production() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func (c Config) RedisEnabled() bool { return strings.TrimSpace(c.Redis.Addr) != "" }

func LoadConfig() Config {
	env := envutil.String("APP_ENV", "development")
	logMode := envutil.String("LOG_MODE", "")
	if logMode == "" {
		logMode = "development"
		if strings.EqualFold(env, "production") {
			logMode = "production"
		}
	}

	gw := llm.DefaultGatewayConfig()
	gw.MaxRetries = envutil.Int("LLM_MAX_RETRIES", gw.MaxRetries)
	gw.BaseDelay = envutil.Duration("LLM_BASE_DELAY", gw.BaseDelay)
	gw.CallTimeout = envutil.Duration("LLM_CALL_TIMEOUT", gw.CallTimeout)

	return Config{
		Port:    envutil.String("PORT", "8080"),
		Env:     env,
		LogMode: logMode,
		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "trainforge"),
			SQLitePath:       envutil.String("SQLITE_PATH", "trainforge.db"),
		},
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		ConversationTTL: envutil.Duration("CONVERSATION_TTL", 24*time.Hour),
		Anthropic: llm.AnthropicConfig{
			APIKey:  envutil.String("ANTHROPIC_API_KEY", ""),
			BaseURL: envutil.String("ANTHROPIC_BASE_URL", ""),
		},
		OpenAI: llm.OpenAIConfig{
			APIKey:  envutil.String("OPENAI_API_KEY", ""),
			BaseURL: envutil.String("OPENAI_BASE_URL", ""),
		},
		Gateway:       gw,
		AgentsDir:     envutil.String("AGENTS_DIR", ""),
		MaxUploadSize: envutil.Int64("MAX_UPLOAD_SIZE", defaultMaxUploadSize),
		CORSOrigins:   splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		Tracing: observability.TracingConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "trainforge-backend"),
			Environment: env,
			Version:     envutil.String("SERVICE_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1),
		},
	}
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
