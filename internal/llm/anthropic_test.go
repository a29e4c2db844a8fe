package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
)

func TestComplete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [{"type":"text","text":"{\"ideas\":"},{"type":"text","text":"[]}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", WithBaseURL(srv.URL), WithModel("claude-test"))
	resp, err := p.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "json only",
		Messages:     []Message{UserMessage("ideas for a cafe")},
		MaxTokens:    256,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ideas":[]}`, resp.Text)
	assert.Equal(t, StopReasonEndTurn, resp.StopReason)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, 5, resp.OutputTokens)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	assert.Equal(t, "json only", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, RoleUser, got.Messages[0].Role)
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("k", WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{UserMessage("hi")}})
	require.Error(t, err)

	var apiErr *perrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "slow down")
}

func TestDefaults(t *testing.T) {
	p := NewAnthropicProvider("k", WithModel(""))
	assert.Equal(t, defaultModel, p.ModelID())

	ar := p.buildRequest(CompletionRequest{Model: "override"})
	assert.Equal(t, "override", ar.Model)
	assert.Equal(t, defaultMaxTokens, ar.MaxTokens)
}
