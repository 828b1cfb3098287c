package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yungbote/trainforge-backend/internal/platform/httpx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
}

type anthropicClient struct {
	log    *logger.Logger
	client *anthropic.Client
}

// NewAnthropicClient returns nil without an API key. SDK retries are disabled; the gateway owns retry policy.
func NewAnthropicClient(cfg AnthropicConfig, baseLog *logger.Logger) Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	client := anthropic.NewClient(opts...)
	return &anthropicClient{
		log:    baseLog.With("client", "Anthropic"),
		client: &client,
	}
}

func (c *anthropicClient) Provider() Provider { return ProviderAnthropic }

func buildAnthropicParams(req Request, shape Shape) anthropic.MessageNewParams {
	system := strings.TrimSpace(req.System)
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			// Anthropic only accepts a top-level system instruction.
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if shape.Temperature && req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	return params
}

func (c *anthropicClient) Complete(ctx context.Context, req Request, shape Shape) (*Response, error) {
	msg, err := c.client.Messages.New(ctx, buildAnthropicParams(req, shape))
	if err != nil {
		return nil, convertAnthropicError(err)
	}
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &Response{
		Content: text.String(),
		Model:   string(msg.Model),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func (c *anthropicClient) Stream(ctx context.Context, req Request, shape Shape, onChunk ChunkFunc) (*Response, error) {
	stream := c.client.Messages.NewStreaming(ctx, buildAnthropicParams(req, shape))
	defer stream.Close()

	var (
		full  strings.Builder
		model string
		usage Usage
	)
	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			model = string(ev.Message.Model)
			if ev.Message.Usage.InputTokens > 0 {
				usage.InputTokens = int(ev.Message.Usage.InputTokens)
			}
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				full.WriteString(delta.Text)
				if onChunk != nil {
					onChunk(delta.Text)
				}
			}
		case anthropic.MessageDeltaEvent:
			if ev.Usage.OutputTokens > 0 {
				usage.OutputTokens = int(ev.Usage.OutputTokens)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, convertAnthropicError(err)
	}
	return &Response{Content: full.String(), Model: model, Usage: usage}, nil
}

// convertAnthropicError maps SDK errors onto ProviderError so the gateway can classify them.
func convertAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	pe := &ProviderError{Provider: ProviderAnthropic, StatusCode: apiErr.StatusCode, Body: apiErr.Error()}
	if apiErr.Response != nil {
		pe.Wait = httpx.ParseRetryAfter(apiErr.Response.Header, time.Now())
	}
	return pe
}
