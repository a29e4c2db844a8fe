package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/p-blackswan/fluxdock/internal/app"
	"github.com/p-blackswan/fluxdock/internal/config"
	"github.com/p-blackswan/fluxdock/internal/launcher"
	"github.com/p-blackswan/fluxdock/internal/notify"
)

type cli struct {
	out     io.Writer
	app     *app.App
	verbose bool
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "dockctl",
		Short:         "Manage dock projects, launches and documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(
		c.projectsCmd(),
		c.windowsCmd(),
		c.activityCmd(),
		c.launchCmd(),
		c.openCmd(),
		c.docsCmd(),
		c.resultsCmd(),
	)
	return root
}

// open builds the application from the environment unless one was injected.
func (c *cli) open(ctx context.Context) error {
	if c.app != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := zerolog.WarnLevel
	if c.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	backend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	a, err := c.build(cfg, backend, nil, logger)
	if err != nil {
		_ = backend.Close()
		return err
	}
	c.app = a
	return nil
}

// build wires an application whose launches and notices print to c.out.
func (c *cli) build(cfg *config.Config, backend app.Backend, sleeper launcher.Sleeper, logger zerolog.Logger) (*app.App, error) {
	return app.New(cfg, backend, app.Options{
		Opener:    newPrintOpener(c.out),
		Sleeper:   sleeper,
		Notifiers: []notify.Notifier{printNotifier{out: c.out}},
	}, logger)
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

// printOpener writes every window launch with its offset from the first one.
type printOpener struct {
	out   io.Writer
	mu    sync.Mutex
	start time.Time
}

func newPrintOpener(out io.Writer) *printOpener {
	return &printOpener{out: out}
}

func (p *printOpener) OpenWindow(appID string, props map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		p.start = time.Now()
	}
	elapsed := time.Since(p.start).Round(time.Millisecond)

	line := "open " + appID
	if props != nil {
		raw, err := json.Marshal(props)
		if err != nil {
			raw = []byte(fmt.Sprintf("%q", err.Error()))
		}
		line += " " + string(raw)
	}
	fmt.Fprintf(p.out, "+%-7s %s\n", elapsed, line)
}

type printNotifier struct{ out io.Writer }

func (p printNotifier) Notify(_ context.Context, n notify.Notice) error {
	_, err := fmt.Fprintf(p.out, "[%s] %s: %s\n", n.Level, n.Title, n.Message)
	return err
}

// readDocument loads a JSON or YAML file and returns it as JSON.
func readDocument(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if !json.Valid(data) {
			return nil, fmt.Errorf("%s: invalid JSON", path)
		}
		return data, nil
	default:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return raw, nil
	}
}
