// Package generate implements flux.Generator over a language model, plus a
// fixture generator for running without one.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/flux"
	"github.com/p-blackswan/fluxdock/internal/llm"
	"github.com/p-blackswan/fluxdock/internal/metrics"
)

// kindInstructions describes the JSON document expected for each kind.
var kindInstructions = map[string]string{
	string(flux.KindProjectPlan): `an object {"title","summary","tasks":[{"title","done"}],"brief":{string:string},"events":[{"title","start","end","notes"}],"imagePrompts":[string]}`,
	string(flux.KindPersonas):    `an array of personas {"name","age","occupation","goals":[string],"frustrations":[string]}`,
	string(flux.KindIdeas):       `an array of idea objects {"title","description"}`,
	string(flux.KindDeck):        `an object {"title","slides":[{"title","bullets":[string]}]}`,
	string(flux.KindFrame):       `an object {"html","css","js"} for a single landing page`,
	string(flux.KindText):        `a JSON string containing the written copy`,
	string(flux.KindMotion):      `an object {"title","scenes":[{"description","durationSeconds"}]}`,
	string(flux.KindMindMap):     `an object {"root","children":[{"label","children":[...]}]}`,
	string(flux.KindCode):        `an object {"code","language"}`,
	string(flux.KindAgenda):      `an array of events {"title","start","end","notes"} with RFC 3339 times`,
	string(flux.KindPalette):     `an array of colors {"name","hex"}`,
	string(flux.KindTone):        `an object {"voice","keywords":[string],"avoid":[string]}`,
	flux.KindFlux:                `an object whose keys are any useful subset of projectPlan, personas, ideas, deck, frame, text, motion, mindMap, code, agenda, palette, tone; each value follows that artifact's usual shape`,
}

const systemPrompt = "You generate structured creative artifacts. Reply with a single JSON document and nothing else."

// LLM generates artifacts by prompting a language model for JSON.
type LLM struct {
	provider llm.Provider
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewLLM creates a generator over provider.
func NewLLM(provider llm.Provider, logger zerolog.Logger, m *metrics.Metrics) *LLM {
	return &LLM{
		provider: provider,
		metrics:  m,
		logger:   logger.With().Str("component", "generate").Str("model", provider.ModelID()).Logger(),
	}
}

// Generate asks the model for one artifact of kind.
func (g *LLM) Generate(ctx context.Context, kind string, input map[string]any) (json.RawMessage, error) {
	out, err := g.generate(ctx, kind, input)
	if err != nil {
		g.metrics.RecordGeneration(kind, "error")
		g.logger.Warn().Err(err).Str("kind", kind).Msg("generation failed")
		return nil, err
	}
	g.metrics.RecordGeneration(kind, "ok")
	return out, nil
}

func (g *LLM) generate(ctx context.Context, kind string, input map[string]any) (json.RawMessage, error) {
	instructions, ok := kindInstructions[kind]
	if !ok {
		return nil, perrors.NewGenerationError(kind, fmt.Sprintf("Generating %q is not supported.", kind), perrors.ErrInvalidInput)
	}

	in, err := json.Marshal(input)
	if err != nil {
		return nil, perrors.NewGenerationError(kind, "The request could not be encoded.", err)
	}

	prompt := fmt.Sprintf("Produce %s.\nRespond with %s.\nInput:\n%s", kind, instructions, in)
	// single attempt; the user re-triggers failed generations
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{llm.UserMessage(prompt)},
	})
	if err != nil {
		return nil, perrors.NewGenerationError(kind, "The generator is unavailable right now. Please try again.", err)
	}

	raw, err := ExtractJSON(resp.Text)
	if err != nil {
		return nil, perrors.NewGenerationError(kind, "The generator returned an unreadable result.", err)
	}
	if kind == flux.KindFlux {
		if _, err := flux.Decode(raw); err != nil {
			return nil, perrors.NewGenerationError(kind, "The generator returned an unreadable result.", err)
		}
	}
	return raw, nil
}

// ExtractJSON pulls the JSON document out of a model reply, tolerating
// surrounding prose and markdown code fences.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}
	if json.Valid([]byte(s)) {
		return compact(s)
	}

	// fall back to the outermost object or array in the text
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON document in reply", perrors.ErrInvalidInput)
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end <= start || !json.Valid([]byte(s[start:end+1])) {
		return nil, fmt.Errorf("%w: no JSON document in reply", perrors.ErrInvalidInput)
	}
	return compact(s[start : end+1])
}

func compact(s string) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
