// Package cleanup runs periodic sweeps over stored data.
package cleanup

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the time between sweeps.
const DefaultInterval = time.Hour

// Sweeper removes stale entries and returns how many it removed.
type Sweeper interface {
	Cleanup(ctx context.Context) int
}

// SweeperFunc adapts a function to Sweeper.
type SweeperFunc func(ctx context.Context) int

// Cleanup calls f(ctx).
func (f SweeperFunc) Cleanup(ctx context.Context) int { return f(ctx) }

// Config holds configuration for the cleaner.
type Config struct {
	Interval time.Duration
}

// Cleaner runs named sweepers on a fixed interval.
type Cleaner struct {
	interval time.Duration
	sweepers map[string]Sweeper
	order    []string
	logger   zerolog.Logger
}

// NewCleaner creates a new Cleaner.
func NewCleaner(cfg Config, logger zerolog.Logger) *Cleaner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Cleaner{
		interval: cfg.Interval,
		sweepers: make(map[string]Sweeper),
		logger:   logger.With().Str("component", "cleanup").Logger(),
	}
}

// Register adds a sweeper. Registering a name twice replaces the sweeper.
func (c *Cleaner) Register(name string, s Sweeper) {
	if _, ok := c.sweepers[name]; !ok {
		c.order = append(c.order, name)
	}
	c.sweepers[name] = s
}

// RunOnce runs every sweeper in registration order and returns the removed
// count per sweeper.
func (c *Cleaner) RunOnce(ctx context.Context) map[string]int {
	removed := make(map[string]int, len(c.order))
	for _, name := range c.order {
		if ctx.Err() != nil {
			break
		}
		n := c.sweepers[name].Cleanup(ctx)
		removed[name] = n
		if n > 0 {
			c.logger.Info().Str("sweeper", name).Int("removed", n).Msg("sweep finished")
		} else {
			c.logger.Debug().Str("sweeper", name).Msg("nothing to sweep")
		}
	}
	return removed
}

// Run sweeps once immediately, then on every interval until ctx is done.
func (c *Cleaner) Run(ctx context.Context) {
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}
