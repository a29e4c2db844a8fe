// Package app builds the dock's component graph from configuration.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/fluxdock/internal/cleanup"
	"github.com/p-blackswan/fluxdock/internal/config"
	"github.com/p-blackswan/fluxdock/internal/dock"
	"github.com/p-blackswan/fluxdock/internal/docs"
	"github.com/p-blackswan/fluxdock/internal/flux"
	"github.com/p-blackswan/fluxdock/internal/generate"
	"github.com/p-blackswan/fluxdock/internal/health"
	"github.com/p-blackswan/fluxdock/internal/host"
	"github.com/p-blackswan/fluxdock/internal/kvstore"
	"github.com/p-blackswan/fluxdock/internal/launcher"
	"github.com/p-blackswan/fluxdock/internal/llm"
	"github.com/p-blackswan/fluxdock/internal/metrics"
	"github.com/p-blackswan/fluxdock/internal/notify"
	"github.com/p-blackswan/fluxdock/internal/project"
	"github.com/p-blackswan/fluxdock/internal/results"
	"github.com/p-blackswan/fluxdock/internal/store"
	"github.com/p-blackswan/fluxdock/internal/store/postgres"
	"github.com/p-blackswan/fluxdock/internal/studio"
)

// Backend is a keyed-store backend that owns a connection.
type Backend interface {
	kvstore.Backend
	io.Closer
}

// OpenBackend opens the storage driver named by cfg.
func OpenBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		return store.New(cfg.SQLitePath, logger)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.PostgresDSN, logger)
	case config.DriverMemory:
		return memoryBackend{kvstore.NewMemory()}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

type memoryBackend struct{ *kvstore.Memory }

func (memoryBackend) Close() error { return nil }

// Options overrides parts of the graph. Zero values use the defaults.
type Options struct {
	// Opener receives window launches. Defaults to the host hub.
	Opener launcher.Opener
	// Sleeper paces launch sequences. Defaults to the wall clock.
	Sleeper launcher.Sleeper
	// Generator replaces the configured generator.
	Generator flux.Generator
	// Notifiers receive notices in addition to the log and the hub.
	Notifiers []notify.Notifier
}

// App holds every long-lived component.
type App struct {
	Config   *config.Config
	Metrics  *metrics.Metrics
	KV       *kvstore.Store
	Dock     *dock.Controller
	Results  *results.Store
	Docs     *docs.Repository
	Hub      *host.Hub
	Notifier notify.Notifier
	Launcher *launcher.Launcher
	Studio   *studio.Studio
	Checker  *health.Checker
	Cleaner  *cleanup.Cleaner

	backend Backend
	stop    func()
	logger  zerolog.Logger
}

// New wires the components over backend. A nil backend runs the dock with
// storage unavailable: reads return defaults and writes are dropped.
func New(cfg *config.Config, backend Backend, opts Options, logger zerolog.Logger) (*App, error) {
	m := metrics.New()

	var kvBackend kvstore.Backend
	if backend != nil {
		kvBackend = backend
	}
	kv := kvstore.New(kvBackend, logger, m)

	repo := project.NewRepository(kv, project.Options{
		MaxActivity: cfg.MaxActivity,
		MaxWindows:  cfg.MaxWindows,
	}, logger, m)
	dc := dock.New(repo, project.NewWindowRegistry(repo), kv, dock.Options{MaxUploads: cfg.MaxUploads}, logger)
	resultStore := results.New(kv, cfg.ResultTTL, logger)

	hub := host.NewHub(cfg.HostBacklog, logger)
	notifiers := append([]notify.Notifier{notify.NewLogNotifier(logger), hub}, opts.Notifiers...)
	notifier := notify.NewMulti(notifiers...)

	opener := opts.Opener
	if opener == nil {
		opener = hub
	}
	l := launcher.New(opener, resultStore, notifier, launcher.Options{
		Delay:   cfg.LaunchDelay,
		Sleeper: opts.Sleeper,
	}, logger, m)

	gen := opts.Generator
	if gen == nil {
		var err error
		if gen, err = newGenerator(cfg, logger, m); err != nil {
			return nil, err
		}
	}

	stopActive := kv.Subscribe(dock.ActiveKey, func(raw []byte) {
		var id string
		if raw != nil {
			if err := json.Unmarshal(raw, &id); err != nil {
				logger.Warn().Err(err).Msg("unreadable active project")
				return
			}
		}
		hub.ActiveProject(id)
	})

	checker := health.NewChecker(logger)
	checker.Register("storage", health.PingCheck(kv))

	cleaner := cleanup.NewCleaner(cleanup.Config{Interval: cfg.CleanupInterval}, logger)
	cleaner.Register("results", resultStore)

	return &App{
		Config:   cfg,
		Metrics:  m,
		KV:       kv,
		Dock:     dc,
		Results:  resultStore,
		Docs:     docs.NewRepository(kv, logger),
		Hub:      hub,
		Notifier: notifier,
		Launcher: l,
		Studio:   studio.New(gen, resultStore, dc, l, notifier, studio.Options{Timeout: cfg.GenerateTimeout}, logger),
		Checker:  checker,
		Cleaner:  cleaner,
		backend:  backend,
		stop:     stopActive,
		logger:   logger.With().Str("component", "app").Logger(),
	}, nil
}

func newGenerator(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) (flux.Generator, error) {
	if !cfg.GeneratorEnabled() {
		logger.Info().Msg("no LLM API key configured, using fixture generator")
		return generate.NewFixture(m)
	}
	provider := llm.NewAnthropicProvider(cfg.AnthropicAPIKey,
		llm.WithModel(cfg.AnthropicModel),
		llm.WithTimeout(cfg.GenerateTimeout),
		llm.WithLogger(logger),
	)
	logger.Info().Str("model", provider.ModelID()).Msg("LLM generator enabled")
	return generate.NewLLM(provider, logger, m), nil
}

// Close detaches the store subscriptions and releases the storage backend.
func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}
	if a.backend == nil {
		return nil
	}
	return a.backend.Close()
}
