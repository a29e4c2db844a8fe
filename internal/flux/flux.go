// Package flux defines the bundle of generated artifacts produced by a single
// "describe your goal" request, and the generator port that produces them.
package flux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
)

// Kind is one artifact kind of a flux bundle.
type Kind string

const (
	KindProjectPlan Kind = "projectPlan"
	KindPersonas    Kind = "personas"
	KindIdeas       Kind = "ideas"
	KindDeck        Kind = "deck"
	KindFrame       Kind = "frame"
	KindText        Kind = "text"
	KindMotion      Kind = "motion"
	KindMindMap     Kind = "mindMap"
	KindCode        Kind = "code"
	KindAgenda      Kind = "agenda"
	KindPalette     Kind = "palette"
	KindTone        Kind = "tone"
)

// Kinds lists every artifact kind in bundle key order.
var Kinds = []Kind{
	KindProjectPlan, KindPersonas, KindIdeas, KindDeck, KindFrame, KindText,
	KindMotion, KindMindMap, KindCode, KindAgenda, KindPalette, KindTone,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Result is a flux bundle. Any subset of artifacts may be present; a missing
// field and a JSON null both mean "not present".
type Result struct {
	ProjectPlan json.RawMessage `json:"projectPlan,omitempty"`
	Personas    json.RawMessage `json:"personas,omitempty"`
	Ideas       json.RawMessage `json:"ideas,omitempty"`
	Deck        json.RawMessage `json:"deck,omitempty"`
	Frame       json.RawMessage `json:"frame,omitempty"`
	Text        json.RawMessage `json:"text,omitempty"`
	Motion      json.RawMessage `json:"motion,omitempty"`
	MindMap     json.RawMessage `json:"mindMap,omitempty"`
	Code        json.RawMessage `json:"code,omitempty"`
	Agenda      json.RawMessage `json:"agenda,omitempty"`
	Palette     json.RawMessage `json:"palette,omitempty"`
	Tone        json.RawMessage `json:"tone,omitempty"`
}

func (r *Result) field(k Kind) *json.RawMessage {
	switch k {
	case KindProjectPlan:
		return &r.ProjectPlan
	case KindPersonas:
		return &r.Personas
	case KindIdeas:
		return &r.Ideas
	case KindDeck:
		return &r.Deck
	case KindFrame:
		return &r.Frame
	case KindText:
		return &r.Text
	case KindMotion:
		return &r.Motion
	case KindMindMap:
		return &r.MindMap
	case KindCode:
		return &r.Code
	case KindAgenda:
		return &r.Agenda
	case KindPalette:
		return &r.Palette
	case KindTone:
		return &r.Tone
	}
	return nil
}

// Get returns the raw artifact of kind k, or nil when it is not present.
func (r Result) Get(k Kind) json.RawMessage {
	f := r.field(k)
	if f == nil || !present(*f) {
		return nil
	}
	return *f
}

// Has reports whether the artifact of kind k is present.
func (r Result) Has(k Kind) bool {
	return r.Get(k) != nil
}

// Present returns the kinds present in r, in key order.
func (r Result) Present() []Kind {
	var out []Kind
	for _, k := range Kinds {
		if r.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Empty reports whether no artifact is present.
func (r Result) Empty() bool {
	return len(r.Present()) == 0
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decode parses a stored bundle. The document must be a JSON object; unknown
// keys are ignored.
func Decode(raw []byte) (Result, error) {
	var r Result
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Result{}, fmt.Errorf("%w: flux bundle is not an object", perrors.ErrInvalidInput)
	}
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return Result{}, fmt.Errorf("%w: decode flux bundle: %v", perrors.ErrInvalidInput, err)
	}
	return r, nil
}

// Generator produces one artifact. KindFlux asks for a whole bundle.
// Failures are reported as *perrors.GenerationError.
type Generator interface {
	Generate(ctx context.Context, kind string, input map[string]any) (json.RawMessage, error)
}

// KindFlux is the generator kind for a whole bundle.
const KindFlux = "flux"
