package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	// HTTPTimeout bounds the transport; the gateway applies its own per-call timeout.
	HTTPTimeout time.Duration
}

type openAIClient struct {
	log        *logger.Logger
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient returns nil when no API key is set so the gateway reports the provider as unconfigured.
func NewOpenAIClient(cfg OpenAIConfig, baseLog *logger.Logger) Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &openAIClient{
		log:        baseLog.With("client", "OpenAI"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *openAIClient) Provider() Provider { return ProviderOpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatRequest struct {
	Model               string             `json:"model"`
	Messages            []chatMessage      `json:"messages"`
	MaxTokens           int                `json:"max_tokens,omitempty"`
	MaxCompletionTokens int                `json:"max_completion_tokens,omitempty"`
	Temperature         *float64           `json:"temperature,omitempty"`
	Stream              bool               `json:"stream,omitempty"`
	StreamOptions       *chatStreamOptions `json:"stream_options,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage"`
}

type chatChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage"`
	Error any        `json:"error"`
}

// buildChatRequest applies the family contract: token parameter name, temperature, system role.
func buildChatRequest(req Request, shape Shape, stream bool) chatRequest {
	out := chatRequest{Model: req.Model}
	if sys := strings.TrimSpace(req.System); sys != "" {
		out.Messages = append(out.Messages, chatMessage{Role: shape.SystemRole, Content: sys})
	}
	for _, m := range req.Messages {
		role := string(m.Role)
		if m.Role == RoleSystem {
			role = shape.SystemRole
		}
		out.Messages = append(out.Messages, chatMessage{Role: role, Content: m.Content})
	}
	if req.MaxTokens > 0 {
		if shape.TokenParam == "max_completion_tokens" {
			out.MaxCompletionTokens = req.MaxTokens
		} else {
			out.MaxTokens = req.MaxTokens
		}
	}
	if shape.Temperature && req.Temperature != nil {
		t := *req.Temperature
		out.Temperature = &t
	}
	if stream {
		out.Stream = true
		out.StreamOptions = &chatStreamOptions{IncludeUsage: true}
	}
	return out
}

func (c *openAIClient) newRequest(ctx context.Context, body any, stream bool) (*http.Request, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

func (c *openAIClient) Complete(ctx context.Context, req Request, shape Shape) (*Response, error) {
	httpReq, err := c.newRequest(ctx, buildChatRequest(req, shape, false), false)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newProviderError(ProviderOpenAI, resp, string(raw))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("openai decode error: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	if r := strings.TrimSpace(out.Choices[0].Message.Refusal); r != "" {
		return nil, fmt.Errorf("model refused: %s", r)
	}
	result := &Response{Content: out.Choices[0].Message.Content, Model: out.Model}
	if out.Usage != nil {
		result.Usage = Usage{InputTokens: out.Usage.PromptTokens, OutputTokens: out.Usage.CompletionTokens}
	}
	return result, nil
}

func (c *openAIClient) Stream(ctx context.Context, req Request, shape Shape, onChunk ChunkFunc) (*Response, error) {
	httpReq, err := c.newRequest(ctx, buildChatRequest(req, shape, true), true)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, newProviderError(ProviderOpenAI, resp, string(raw))
	}

	var (
		full  strings.Builder
		model string
		usage Usage
	)
	err = readSSE(resp.Body, func(_ string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		if chunk.Error != nil {
			b, _ := json.Marshal(chunk.Error)
			return fmt.Errorf("openai stream error: %s", string(b))
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if chunk.Usage != nil {
			usage = Usage{InputTokens: chunk.Usage.PromptTokens, OutputTokens: chunk.Usage.CompletionTokens}
		}
		for _, ch := range chunk.Choices {
			if d := strings.TrimRight(ch.Delta.Content, "\u0000"); d != "" {
				full.WriteString(d)
				if onChunk != nil {
					onChunk(d)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Response{Content: full.String(), Model: model, Usage: usage}, nil
}
