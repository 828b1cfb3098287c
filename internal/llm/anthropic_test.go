package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

func TestAnthropicClientComplete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		require.Equal(t, "ak-test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",`+
			`"content":[{"type":"text","text":"bonjour"}],"stop_reason":"end_turn","stop_sequence":null,`+
			`"usage":{"input_tokens":7,"output_tokens":3}}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "ak-test", BaseURL: srv.URL}, logger.Nop())
	req := Request{Model: "claude-sonnet-4-5", System: "sys", Messages: []Message{UserMessage("hi")}, MaxTokens: 64}
	resp, err := c.Complete(context.Background(), req, ShapeFor(ProviderAnthropic, req.Model))
	require.NoError(t, err)
	require.Equal(t, "bonjour", resp.Content)
	require.Equal(t, Usage{InputTokens: 7, OutputTokens: 3}, resp.Usage)
	require.EqualValues(t, 64, body["max_tokens"])
	_, hasTemp := body["temperature"]
	require.False(t, hasTemp)
}

func TestAnthropicClientAuthErrorThroughGateway(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "bad", BaseURL: srv.URL}, logger.Nop())
	rec := &sleepRecorder{}
	gw := newTestGateway(t, client, rec)
	_, err := gw.Complete(context.Background(), Request{Provider: ProviderAnthropic, Model: "claude-sonnet-4-5", Messages: []Message{UserMessage("x")}})
	require.Error(t, err)
	require.Equal(t, apierr.KindAuth, apierr.KindOf(err))
	require.Equal(t, 1, calls)
	require.Empty(t, rec.delays)
}
