package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/trainforge-backend/internal/agents"
	"github.com/yungbote/trainforge-backend/internal/clients/redis"
	"github.com/yungbote/trainforge-backend/internal/conversation"
	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/realtime"
	"github.com/yungbote/trainforge-backend/internal/realtime/bus"
)

type Clients struct {
	Redis    *goredis.Client
	Gateway  llm.Gateway
	Registry *agents.Registry
	Store    conversation.Store
	Hub      *realtime.SSEHub
	// Bus is nil without redis; the hub then only reaches this process.
	Bus     bus.Bus
	Emitter realtime.Emitter
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	registry, err := agents.Load(cfg.AgentsDir, log)
	if err != nil {
		return Clients{}, fmt.Errorf("load agents: %w", err)
	}

	if cfg.Anthropic.APIKey == "" {
		log.Warn("ANTHROPIC_API_KEY not set; anthropic agents will fail until it is")
	}
	if cfg.OpenAI.APIKey == "" {
		log.Warn("OPENAI_API_KEY not set; openai agents will fail until it is")
	}
	gateway := llm.NewGateway(cfg.Gateway, log,
		llm.NewAnthropicClient(cfg.Anthropic, log),
		llm.NewOpenAIClient(cfg.OpenAI, log),
	)

	hub := realtime.NewSSEHub(log)
	out := Clients{
		Gateway:  gateway,
		Registry: registry,
		Hub:      hub,
		Store:    conversation.NewMemoryStore(cfg.ConversationTTL),
		Emitter:  &realtime.HubEmitter{Hub: hub},
	}

	if !cfg.RedisEnabled() {
		log.Info("REDIS_ADDR not set; conversation store and SSE fan-out are process-local")
		return out, nil
	}
	rdb, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	b, err := bus.NewRedisBus(rdb, bus.DefaultChannel, log)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
	}
	out.Redis = rdb
	out.Bus = b
	out.Store = conversation.NewRedisStore(rdb, cfg.ConversationTTL, log)
	out.Emitter = &bus.Emitter{Bus: b, Fallback: out.Emitter}
	return out, nil
}
