package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/httpx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type GatewayConfig struct {
	MaxRetries  int
	BaseDelay   time.Duration
	CallTimeout time.Duration
	// Sleep waits between attempts; tests replace it to observe delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{MaxRetries: 3, BaseDelay: time.Second, CallTimeout: 2 * time.Minute}
}

type gateway struct {
	log     *logger.Logger
	cfg     GatewayConfig
	clients map[Provider]Client
	tracer  trace.Tracer
}

func NewGateway(cfg GatewayConfig, baseLog *logger.Logger, clients ...Client) Gateway {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 2 * time.Minute
	}
	if cfg.Sleep == nil {
		cfg.Sleep = httpx.Sleep
	}
	byProvider := make(map[Provider]Client, len(clients))
	for _, c := range clients {
		if c != nil {
			byProvider[c.Provider()] = c
		}
	}
	return &gateway{
		log:     baseLog.With("service", "ModelGateway"),
		cfg:     cfg,
		clients: byProvider,
		tracer:  otel.Tracer("trainforge/llm"),
	}
}

func (g *gateway) Complete(ctx context.Context, req Request) (*Response, error) {
	client, shape, err := g.route(req)
	if err != nil {
		return nil, err
	}
	return g.call(ctx, req, "complete", func(callCtx context.Context) (*Response, error) {
		return client.Complete(callCtx, req, shape)
	}, nil)
}

func (g *gateway) Stream(ctx context.Context, req Request, onChunk ChunkFunc) (*Response, error) {
	client, shape, err := g.route(req)
	if err != nil {
		return nil, err
	}
	if !shape.Streaming {
		resp, err := g.call(ctx, req, "complete", func(callCtx context.Context) (*Response, error) {
			return client.Complete(callCtx, req, shape)
		}, nil)
		if err != nil {
			return nil, err
		}
		if onChunk != nil && resp.Content != "" {
			onChunk(resp.Content)
		}
		return resp, nil
	}

	emitted := false
	wrapped := func(chunk string) {
		if chunk == "" {
			return
		}
		emitted = true
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	// Once text has reached the caller a retry would duplicate it.
	canRetry := func() bool { return !emitted }
	return g.call(ctx, req, "stream", func(callCtx context.Context) (*Response, error) {
		return client.Stream(callCtx, req, shape, wrapped)
	}, canRetry)
}

func (g *gateway) route(req Request) (Client, Shape, error) {
	if strings.TrimSpace(req.Model) == "" {
		return nil, Shape{}, apierr.Validation("model_required", fmt.Errorf("no model configured for agent %q", req.Agent))
	}
	client, ok := g.clients[req.Provider]
	if !ok {
		return nil, Shape{}, notConfigured(req.Provider, providerKeyEnv(req.Provider))
	}
	return client, ShapeFor(req.Provider, req.Model), nil
}

func (g *gateway) call(
	ctx context.Context,
	req Request,
	mode string,
	do func(ctx context.Context) (*Response, error),
	canRetry func() bool,
) (*Response, error) {
	ctx, span := g.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.agent", req.Agent),
		attribute.String("llm.provider", string(req.Provider)),
		attribute.String("llm.model", req.Model),
		attribute.String("llm.mode", mode),
	))
	defer span.End()

	start := time.Now()
	var prevDelay time.Duration
	for attempt := 0; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
		resp, err := do(callCtx)
		cancel()
		if err == nil {
			if resp.Usage.InputTokens == 0 && resp.Usage.OutputTokens == 0 {
				resp.Usage = Usage{InputTokens: estimateRequestTokens(req), OutputTokens: estimateTokens(resp.Content)}
			}
			if resp.Model == "" {
				resp.Model = req.Model
			}
			span.SetAttributes(
				attribute.Int("llm.attempts", attempt+1),
				attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
				attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
			)
			g.log.Debug("model call completed",
				"agent", req.Agent,
				"model", resp.Model,
				"attempts", attempt+1,
				"input_tokens", resp.Usage.InputTokens,
				"output_tokens", resp.Usage.OutputTokens,
				"duration", time.Since(start).String(),
			)
			return resp, nil
		}

		retry, classified := classify(err)
		if canRetry != nil && !canRetry() {
			retry = false
		}
		if ctx.Err() != nil {
			retry = false
		}
		if !retry || attempt >= g.cfg.MaxRetries {
			span.RecordError(classified)
			span.SetStatus(codes.Error, classified.Error())
			g.log.Warn("model call failed",
				"agent", req.Agent,
				"model", req.Model,
				"attempts", attempt+1,
				"kind", string(apierr.KindOf(classified)),
				"error", classified.Error(),
			)
			return nil, classified
		}

		backoff := httpx.Backoff(g.cfg.BaseDelay, attempt+1)
		delay := backoff
		if ra := retryAfterOf(err); ra > delay {
			delay = ra
		}
		// Retry-After may repeat the same value; delays still grow.
		if delay <= prevDelay {
			delay = prevDelay + backoff
		}
		prevDelay = delay
		g.log.Warn("model call retrying",
			"agent", req.Agent,
			"model", req.Model,
			"attempt", attempt+1,
			"max_retries", g.cfg.MaxRetries,
			"sleep", delay.String(),
			"error", err.Error(),
		)
		if serr := g.cfg.Sleep(ctx, delay); serr != nil {
			return nil, serr
		}
	}
}

func providerKeyEnv(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return strings.ToUpper(string(p)) + "_API_KEY"
	}
}
