package generate

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/metrics"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Fixture returns canned artifacts. Used in development when no model is
// configured.
type Fixture struct {
	outputs map[string]json.RawMessage
	metrics *metrics.Metrics
}

// NewFixture loads the embedded fixtures.
func NewFixture(m *metrics.Metrics) (*Fixture, error) {
	return NewFixtureFromYAML(fixturesYAML, m)
}

// NewFixtureFromYAML loads fixtures from a YAML document keyed by kind.
func NewFixtureFromYAML(data []byte, m *metrics.Metrics) (*Fixture, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	outputs := make(map[string]json.RawMessage, len(doc))
	for kind, v := range doc {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", kind, err)
		}
		outputs[kind] = raw
	}
	return &Fixture{outputs: outputs, metrics: m}, nil
}

// Generate returns the canned output for kind.
func (f *Fixture) Generate(_ context.Context, kind string, _ map[string]any) (json.RawMessage, error) {
	out, ok := f.outputs[kind]
	if !ok {
		f.metrics.RecordGeneration(kind, "error")
		return nil, perrors.NewGenerationError(kind, fmt.Sprintf("Generating %q is not supported.", kind), perrors.ErrInvalidInput)
	}
	f.metrics.RecordGeneration(kind, "ok")
	return append(json.RawMessage(nil), out...), nil
}

// Kinds lists the kinds the fixture can produce.
func (f *Fixture) Kinds() []string {
	out := make([]string, 0, len(f.outputs))
	for k := range f.outputs {
		out = append(out, k)
	}
	return out
}
