// Package launcher fans flux bundles and deep links out into paced window
// launches on the host UI.
package launcher

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/flux"
	"github.com/p-blackswan/fluxdock/internal/metrics"
	"github.com/p-blackswan/fluxdock/internal/notify"
)

// Opener is the host capability that opens an app window. Fire and forget.
type Opener interface {
	OpenWindow(appID string, props map[string]any)
}

// Resolved is a stored result fetched for a deep link.
type Resolved struct {
	Result json.RawMessage `json:"result"`
	Prompt string          `json:"prompt,omitempty"`
}

// Resolver fetches stored results. It returns nil when the result is missing
// or unreadable and never fails otherwise.
type Resolver interface {
	Resolve(ctx context.Context, id string) *Resolved
}

// State is the launcher's dispatch state.
type State string

const (
	StateIdle        State = "idle"
	StateDispatching State = "dispatching"
)

// Options configures a Launcher.
type Options struct {
	Delay   time.Duration
	Sleeper Sleeper
}

// Launcher opens windows for bundles and deep links. Concurrent calls are
// serialized so sequences never interleave.
type Launcher struct {
	mu          sync.Mutex
	dispatching atomic.Bool

	opener   Opener
	resolver Resolver
	notifier notify.Notifier
	seq      *Sequencer
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New creates a launcher. resolver and notifier may be nil.
func New(opener Opener, resolver Resolver, notifier notify.Notifier, opts Options, logger zerolog.Logger, m *metrics.Metrics) *Launcher {
	return &Launcher{
		opener:   opener,
		resolver: resolver,
		notifier: notifier,
		seq:      NewSequencer(opts.Delay, opts.Sleeper),
		metrics:  m,
		logger:   logger.With().Str("component", "launcher").Logger(),
	}
}

// State reports whether a launch is in progress.
func (l *Launcher) State() State {
	if l.dispatching.Load() {
		return StateDispatching
	}
	return StateIdle
}

// LaunchFluxProject opens one window per present artifact of result, brand
// composite first, pausing between opens. Returns the number of windows opened.
func (l *Launcher) LaunchFluxProject(ctx context.Context, result flux.Result, prompt string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dispatch(ctx, result, prompt)
}

func (l *Launcher) dispatch(_ context.Context, result flux.Result, prompt string) int {
	if result.Empty() {
		l.logger.Debug().Msg("flux bundle has no artifacts, nothing to launch")
		return 0
	}
	l.dispatching.Store(true)
	defer l.dispatching.Store(false)

	plan := Plan(result, prompt)
	start := time.Now()
	n := l.seq.Run(plan, func(launch Launch) {
		l.open(launch.App, launch.Props)
	})
	l.metrics.ObserveLaunchSequence(time.Since(start))
	l.logger.Info().Int("launches", n).Msg("flux bundle launched")
	return n
}

// LaunchAppFromURL opens appID for a deep link. With a result id the stored
// result is resolved first; resolution failures raise a warning and the app
// opens with no payload. A resolved flux bundle is launched as a whole.
func (l *Launcher) LaunchAppFromURL(ctx context.Context, appID, resultID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if resultID == "" {
		l.open(appID, nil)
		return
	}

	var resolved *Resolved
	if l.resolver != nil {
		resolved = l.resolver.Resolve(ctx, resultID)
	}
	if resolved == nil {
		l.resolutionFailed(ctx, appID, &perrors.ResolutionError{ResultID: resultID, Err: perrors.ErrNotFound}, "missing")
		return
	}

	if appID == AppFlux {
		bundle, err := flux.Decode(resolved.Result)
		if err != nil {
			l.resolutionFailed(ctx, appID, &perrors.ResolutionError{ResultID: resultID, Err: err}, "malformed")
			return
		}
		l.metrics.RecordResolution("ok")
		l.dispatch(ctx, bundle, resolved.Prompt)
		return
	}

	l.metrics.RecordResolution("ok")
	l.open(appID, GenericPayload(resolved.Result, resolved.Prompt))
}

func (l *Launcher) resolutionFailed(ctx context.Context, appID string, err *perrors.ResolutionError, status string) {
	l.metrics.RecordResolution(status)
	l.logger.Warn().Err(err).Str("app", appID).Msg("stored result unavailable, opening empty")
	notify.Send(ctx, l.notifier, notify.Notice{
		Level:   notify.LevelWarning,
		Title:   "Result unavailable",
		Message: perrors.UserMessage(err),
		Source:  "launcher",
		Err:     err,
	})
	l.open(appID, nil)
}

func (l *Launcher) open(appID string, props map[string]any) {
	l.metrics.RecordLaunch(appID)
	l.logger.Debug().Str("app", appID).Bool("payload", props != nil).Msg("opening window")
	l.opener.OpenWindow(appID, props)
}
