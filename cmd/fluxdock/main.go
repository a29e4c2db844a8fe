package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/fluxdock/internal/api"
	"github.com/p-blackswan/fluxdock/internal/app"
	"github.com/p-blackswan/fluxdock/internal/config"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsDevelopment() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Logger = logger

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("storage", cfg.StorageDriver).
		Bool("llm_enabled", cfg.GeneratorEnabled()).
		Msg("starting fluxdock")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// A failed backend leaves the dock running with storage unavailable.
	var backend app.Backend
	if b, err := app.OpenBackend(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Str("driver", cfg.StorageDriver).Msg("storage unavailable, continuing without persistence")
	} else {
		backend = b
	}

	dockApp, err := app.New(cfg, backend, app.Options{}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	server := api.NewServer(api.ServerConfig{
		ListenAddr:  cfg.ListenAddr,
		CORSOrigins: cfg.CORSOrigins,
	}, api.Deps{
		Dock:     dockApp.Dock,
		Launcher: dockApp.Launcher,
		Results:  dockApp.Results,
		Docs:     dockApp.Docs,
		Studio:   dockApp.Studio,
		Hub:      dockApp.Hub,
		Checker:  dockApp.Checker,
		Metrics:  dockApp.Metrics,
	}, logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		dockApp.Cleaner.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
			cancel()
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case <-ctx.Done():
	}
	cancel()

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	if err := dockApp.Close(); err != nil {
		logger.Error().Err(err).Msg("storage close error")
	}
	logger.Info().Msg("fluxdock stopped")
}
