package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
)

const (
	anthropicAPIBase    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
	defaultMaxTokens    = 4096
	defaultModel        = "claude-sonnet-4-5"
)

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	model     string
	maxTokens int
	client    *resty.Client
	logger    zerolog.Logger
}

// AnthropicOption configures the provider.
type AnthropicOption func(*AnthropicProvider)

func WithModel(model string) AnthropicOption {
	return func(p *AnthropicProvider) {
		if model != "" {
			p.model = model
		}
	}
}

func WithMaxTokens(n int) AnthropicOption {
	return func(p *AnthropicProvider) { p.maxTokens = n }
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func WithBaseURL(url string) AnthropicOption {
	return func(p *AnthropicProvider) { p.client.SetBaseURL(url) }
}

func WithTimeout(d time.Duration) AnthropicOption {
	return func(p *AnthropicProvider) { p.client.SetTimeout(d) }
}

func WithLogger(l zerolog.Logger) AnthropicOption {
	return func(p *AnthropicProvider) { p.logger = l.With().Str("component", "llm").Logger() }
}

// NewAnthropicProvider constructs a new Anthropic provider.
func NewAnthropicProvider(apiKey string, opts ...AnthropicOption) *AnthropicProvider {
	c := resty.New().
		SetBaseURL(anthropicAPIBase).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", anthropicAPIVersion).
		SetTimeout(120 * time.Second)

	p := &AnthropicProvider{
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		client:    c,
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *AnthropicProvider) ModelID() string { return p.model }

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *AnthropicProvider) buildRequest(req CompletionRequest) anthropicRequest {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}
	maxTok := p.maxTokens
	if req.MaxTokens > 0 {
		maxTok = req.MaxTokens
	}
	return anthropicRequest{
		Model:       model,
		MaxTokens:   maxTok,
		System:      req.SystemPrompt,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	}
}

// Complete sends a blocking completion request.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ar := p.buildRequest(req)

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&ar).
		Post("/messages")
	if err != nil {
		return nil, fmt.Errorf("anthropic http: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		msg := resp.String()
		var ae anthropicError
		if json.Unmarshal(resp.Body(), &ae) == nil && ae.Error != nil {
			msg = ae.Error.Type + ": " + ae.Error.Message
		}
		return nil, perrors.NewAPIError("anthropic", resp.StatusCode(), msg)
	}

	var body anthropicResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	out := &CompletionResponse{
		StopReason:   body.StopReason,
		InputTokens:  body.Usage.InputTokens,
		OutputTokens: body.Usage.OutputTokens,
	}
	for _, block := range body.Content {
		if block.Type == "text" {
			out.Text += block.Text
		}
	}

	p.logger.Debug().
		Str("model", ar.Model).
		Str("stop_reason", out.StopReason).
		Int("in_tokens", out.InputTokens).
		Int("out_tokens", out.OutputTokens).
		Msg("anthropic complete")
	return out, nil
}
