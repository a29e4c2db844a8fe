// Package health runs named dependency checks for the readiness endpoint.
package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
)

// Status represents the health status of a dependency.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

const checkTimeout = 5 * time.Second

func (s Status) rank() int {
	switch s {
	case StatusOK:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// CheckFunc is a function that checks a dependency's health.
type CheckFunc func(ctx context.Context) Status

// Pinger is anything that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck turns a Pinger into a check. An unavailable dependency is
// degraded, since the service keeps running on defaults; any other error is
// down.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) Status {
		err := p.Ping(ctx)
		switch {
		case err == nil:
			return StatusOK
		case errors.Is(err, perrors.ErrUnavailable):
			return StatusDegraded
		default:
			return StatusDown
		}
	}
}

// Report is the outcome of a check run.
type Report struct {
	Status  Status            `json:"status"`
	Checks  map[string]Status `json:"checks"`
	Checked time.Time         `json:"checked"`
}

// Ready reports whether no check is down.
func (r Report) Ready() bool {
	return r.Status != StatusDown
}

// Checker manages health checks for all dependencies.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
	last   Report
	logger zerolog.Logger
}

// NewChecker creates a new health checker.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		checks: make(map[string]CheckFunc),
		last:   Report{Status: StatusOK, Checks: map[string]Status{}},
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// Register adds a named health check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Run executes all checks concurrently, caches and returns the report. The
// overall status is the worst individual status.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()

	statuses := make(map[string]Status, len(checks))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, fn := range checks {
		wg.Add(1)
		go func(n string, f CheckFunc) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			s := f(checkCtx)
			mu.Lock()
			statuses[n] = s
			mu.Unlock()
		}(name, fn)
	}
	wg.Wait()

	overall := StatusOK
	for name, s := range statuses {
		if s.rank() > overall.rank() {
			overall = s
		}
		if s != StatusOK {
			c.logger.Warn().Str("check", name).Str("status", string(s)).Msg("health check not ok")
		}
	}

	report := Report{Status: overall, Checks: statuses, Checked: time.Now().UTC()}
	c.mu.Lock()
	c.last = report
	c.mu.Unlock()
	return report
}

// Last returns the most recent report without running checks.
func (c *Checker) Last() Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// IsReady runs all checks and reports whether none is down.
func (c *Checker) IsReady(ctx context.Context) bool {
	return c.Run(ctx).Ready()
}
