package llm

import (
	"context"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is the provider-neutral call shape. Agent is informational (logs, spans).
type Request struct {
	Agent       string
	Provider    Provider
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// ChunkFunc receives incremental text as it arrives.
type ChunkFunc func(chunk string)

// Client is a single provider transport. Implementations make exactly one attempt per call;
// retries, timeouts and streaming fallbacks belong to the Gateway.
type Client interface {
	Provider() Provider
	Complete(ctx context.Context, req Request, shape Shape) (*Response, error)
	Stream(ctx context.Context, req Request, shape Shape, onChunk ChunkFunc) (*Response, error)
}

// Gateway is the uniform model call surface used by the workflow.
type Gateway interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Stream(ctx context.Context, req Request, onChunk ChunkFunc) (*Response, error)
}

func UserMessage(content string) Message      { return Message{Role: RoleUser, Content: content} }
func AssistantMessage(content string) Message { return Message{Role: RoleAssistant, Content: content} }

func Float(v float64) *float64 { return &v }

func estimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	n := len([]rune(text))
	return (n + 3) / 4
}

func estimateRequestTokens(req Request) int {
	n := estimateTokens(req.System)
	for _, m := range req.Messages {
		n += estimateTokens(m.Content)
	}
	return n
}
