// Package studio runs generation requests end to end: generate, store the
// result, create the project and launch the bundle.
package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/fluxdock/internal/dock"
	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/flux"
	"github.com/p-blackswan/fluxdock/internal/launcher"
	"github.com/p-blackswan/fluxdock/internal/notify"
	"github.com/p-blackswan/fluxdock/internal/project"
	"github.com/p-blackswan/fluxdock/internal/results"
)

const (
	DefaultTimeout = 90 * time.Second
	maxNameRunes   = 60
)

// Options configures a Studio.
type Options struct {
	Timeout time.Duration
}

// Outcome is the result of a describe request.
type Outcome struct {
	Result   results.StoredResult `json:"result"`
	Project  *project.Project     `json:"project,omitempty"`
	Launches int                  `json:"launches"`
}

// Studio ties the generator to result storage, the dock and the launcher.
type Studio struct {
	generator flux.Generator
	results   *results.Store
	dock      *dock.Controller
	launcher  *launcher.Launcher
	notifier  notify.Notifier
	timeout   time.Duration
	logger    zerolog.Logger
}

// New creates a studio.
func New(gen flux.Generator, store *results.Store, dc *dock.Controller, l *launcher.Launcher, n notify.Notifier, opts Options, logger zerolog.Logger) *Studio {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Studio{
		generator: gen,
		results:   store,
		dock:      dc,
		launcher:  l,
		notifier:  n,
		timeout:   opts.Timeout,
		logger:    logger.With().Str("component", "studio").Logger(),
	}
}

// Run generates one artifact and stores it. Generation failures are reported
// to the user and abandoned.
func (s *Studio) Run(ctx context.Context, kind string, input map[string]any) (json.RawMessage, results.StoredResult, error) {
	if kind != flux.KindFlux && !flux.Kind(kind).Valid() {
		err := perrors.NewGenerationError(kind, fmt.Sprintf("Generating %q is not supported.", kind), perrors.ErrInvalidInput)
		s.reportFailure(ctx, err)
		return nil, results.StoredResult{}, err
	}

	out, err := s.generate(ctx, kind, input)
	if err != nil {
		return nil, results.StoredResult{}, err
	}

	stored, err := s.results.Save(ctx, kind, out, promptOf(input))
	if err != nil {
		// the output is still usable, it just cannot be reopened later
		s.logger.Warn().Err(err).Str("kind", kind).Msg("result not stored")
		return out, results.StoredResult{}, nil
	}
	return out, stored, nil
}

// Describe turns a goal into a flux bundle, creates a generated project when
// the bundle carries a plan, and launches every artifact.
func (s *Studio) Describe(ctx context.Context, goal string) (*Outcome, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("%w: goal is required", perrors.ErrInvalidInput)
	}

	raw, stored, err := s.Run(ctx, flux.KindFlux, map[string]any{"prompt": goal})
	if err != nil {
		return nil, err
	}

	bundle, err := flux.Decode(raw)
	if err != nil {
		genErr := perrors.NewGenerationError(flux.KindFlux, "The generator returned an unreadable result.", err)
		s.reportFailure(ctx, genErr)
		return nil, genErr
	}

	outcome := &Outcome{Result: stored}
	if bundle.Has(flux.KindProjectPlan) {
		p, err := s.createProject(ctx, goal, bundle.Get(flux.KindProjectPlan))
		if err != nil {
			s.logger.Warn().Err(err).Msg("generated project not created")
		} else {
			outcome.Project = &p
		}
	}

	outcome.Launches = s.launcher.LaunchFluxProject(ctx, bundle, goal)
	s.logger.Info().
		Str("result_id", stored.ID).
		Int("launches", outcome.Launches).
		Bool("project", outcome.Project != nil).
		Msg("goal described")
	return outcome, nil
}

func (s *Studio) generate(ctx context.Context, kind string, input map[string]any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.generator.Generate(ctx, kind, input)
	if err != nil {
		var genErr *perrors.GenerationError
		if !errors.As(err, &genErr) {
			genErr = perrors.NewGenerationError(kind, "The generator is unavailable right now. Please try again.", err)
		}
		s.reportFailure(ctx, genErr)
		return nil, genErr
	}
	return out, nil
}

func (s *Studio) createProject(ctx context.Context, goal string, raw json.RawMessage) (project.Project, error) {
	var plan project.Plan
	planPtr := &plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		s.logger.Debug().Err(err).Msg("plan not decodable, creating project without one")
		planPtr = nil
	}

	name := goal
	if planPtr != nil && strings.TrimSpace(plan.Title) != "" {
		name = plan.Title
	}
	return s.dock.CreateProject(ctx, truncate(name, maxNameRunes), planPtr, true)
}

func (s *Studio) reportFailure(ctx context.Context, err *perrors.GenerationError) {
	s.logger.Warn().Err(err).Str("kind", err.Kind).Msg("generation abandoned")
	notify.Send(ctx, s.notifier, notify.Notice{
		Level:   notify.LevelError,
		Title:   "Generation failed",
		Message: perrors.UserMessage(err),
		Source:  "studio",
		Err:     err,
	})
}

func promptOf(input map[string]any) string {
	p, _ := input["prompt"].(string)
	return p
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n]))
}
