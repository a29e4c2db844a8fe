package generate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/flux"
	"github.com/p-blackswan/fluxdock/internal/llm"
)

type stubProvider struct {
	text  string
	err   error
	calls int
	last  llm.CompletionRequest
}

func (s *stubProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.last = req
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Text: s.text, StopReason: llm.StopReasonEndTurn}, nil
}

func (s *stubProvider) ModelID() string { return "stub" }

var _ flux.Generator = (*LLM)(nil)
var _ flux.Generator = (*Fixture)(nil)

func TestLLMGenerate(t *testing.T) {
	p := &stubProvider{text: "Here you go:\n```json\n{\"title\": \"Deck\", \"slides\": []}\n```"}
	g := NewLLM(p, zerolog.Nop(), nil)

	out, err := g.Generate(context.Background(), "deck", map[string]any{"prompt": "pitch"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Deck","slides":[]}`, string(out))

	require.Len(t, p.last.Messages, 1)
	assert.Contains(t, p.last.Messages[0].Content, `"prompt":"pitch"`)
	assert.NotEmpty(t, p.last.SystemPrompt)
}

func TestLLMGenerateUnsupportedKind(t *testing.T) {
	g := NewLLM(&stubProvider{text: "{}"}, zerolog.Nop(), nil)
	_, err := g.Generate(context.Background(), "hologram", nil)

	var genErr *perrors.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "hologram", genErr.Kind)
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)
}

func TestLLMGenerateProviderFailure(t *testing.T) {
	upstream := perrors.NewAPIError("anthropic", 500, "overloaded")
	p := &stubProvider{err: upstream}
	g := NewLLM(p, zerolog.Nop(), nil)

	_, err := g.Generate(context.Background(), "ideas", nil)
	var genErr *perrors.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.NotEmpty(t, genErr.Message)
	assert.Equal(t, 1, p.calls, "failed generations are not retried")

	var apiErr *perrors.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestLLMGenerateUnparseable(t *testing.T) {
	g := NewLLM(&stubProvider{text: "I cannot do that."}, zerolog.Nop(), nil)
	_, err := g.Generate(context.Background(), "ideas", nil)

	var genErr *perrors.GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestLLMGenerateFluxMustBeObject(t *testing.T) {
	g := NewLLM(&stubProvider{text: `["not a bundle"]`}, zerolog.Nop(), nil)
	_, err := g.Generate(context.Background(), flux.KindFlux, nil)

	var genErr *perrors.GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a": 1}`, `{"a":1}`},
		{"plain string", `"hello"`, `"hello"`},
		{"fenced", "```json\n[1, 2]\n```", `[1,2]`},
		{"fence without language", "```\n{\"b\":true}\n```", `{"b":true}`},
		{"prose around object", `Sure! {"c": "d"} Hope that helps.`, `{"c":"d"}`},
		{"prose around array", `Result: [{"x":1}] done`, `[{"x":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}

	_, err := ExtractJSON("no json here")
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)

	_, err = ExtractJSON("{broken")
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)
}

func TestFixtureCoversEveryKind(t *testing.T) {
	f, err := NewFixture(nil)
	require.NoError(t, err)

	for _, k := range flux.Kinds {
		out, err := f.Generate(context.Background(), string(k), nil)
		require.NoError(t, err, k)
		assert.True(t, json.Valid(out), k)
	}
}

func TestFixtureFluxBundle(t *testing.T) {
	f, err := NewFixture(nil)
	require.NoError(t, err)

	out, err := f.Generate(context.Background(), flux.KindFlux, nil)
	require.NoError(t, err)

	bundle, err := flux.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, []flux.Kind{flux.KindProjectPlan, flux.KindIdeas, flux.KindText, flux.KindPalette, flux.KindTone}, bundle.Present())
}

func TestFixtureUnknownKind(t *testing.T) {
	f, err := NewFixtureFromYAML([]byte("ideas: [a]\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ideas"}, f.Kinds())

	_, err = f.Generate(context.Background(), "deck", nil)
	var genErr *perrors.GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestFixtureBadYAML(t *testing.T) {
	_, err := NewFixtureFromYAML([]byte("ideas: [unclosed"), nil)
	assert.Error(t, err)
}
