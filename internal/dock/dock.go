// Package dock is the user-facing controller over projects and their windows.
package dock

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/fluxdock/internal/kvstore"
	"github.com/p-blackswan/fluxdock/internal/project"
)

// ActiveKey stores the id of the selected project.
const ActiveKey = "dock:active"

const DefaultMaxUploads = 4

// Options configures the controller.
type Options struct {
	MaxUploads int
}

// Controller mediates dock actions onto the project repository and window
// registry and tracks which project is active.
type Controller struct {
	repo       *project.Repository
	windows    *project.WindowRegistry
	kv         *kvstore.Store
	maxUploads int
	now        func() time.Time
	logger     zerolog.Logger
}

// New creates a dock controller.
func New(repo *project.Repository, windows *project.WindowRegistry, kv *kvstore.Store, opts Options, logger zerolog.Logger) *Controller {
	if opts.MaxUploads < 1 {
		opts.MaxUploads = DefaultMaxUploads
	}
	return &Controller{
		repo:       repo,
		windows:    windows,
		kv:         kv,
		maxUploads: opts.MaxUploads,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With().Str("component", "dock").Logger(),
	}
}

// Projects returns the underlying repository.
func (c *Controller) Projects() *project.Repository { return c.repo }

// Windows returns the underlying window registry.
func (c *Controller) Windows() *project.WindowRegistry { return c.windows }

// CreateProject creates a project, manual or generated, and selects it.
func (c *Controller) CreateProject(ctx context.Context, name string, plan *project.Plan, generated bool) (project.Project, error) {
	activity := project.ActivityCreated
	if generated {
		activity = project.ActivityGenerated
	}
	p, err := c.repo.Create(ctx, project.Project{Name: name, Plan: plan}, activity)
	if err != nil {
		return project.Project{}, fmt.Errorf("create project: %w", err)
	}
	kvstore.Write(ctx, c.kv, ActiveKey, p.ID)
	return p, nil
}

// DeleteProject deletes a project and clears the selection if it pointed at it.
func (c *Controller) DeleteProject(ctx context.Context, id string) bool {
	deleted := c.repo.Delete(ctx, id)
	if c.activeID(ctx) == id {
		c.kv.Remove(ctx, ActiveKey)
	}
	return deleted
}

// Select makes the project with id active. Returns false for unknown ids.
func (c *Controller) Select(ctx context.Context, id string) bool {
	if _, ok := c.repo.Get(ctx, id); !ok {
		return false
	}
	kvstore.Write(ctx, c.kv, ActiveKey, id)
	return true
}

// ClearSelection deselects the active project.
func (c *Controller) ClearSelection(ctx context.Context) {
	c.kv.Remove(ctx, ActiveKey)
}

// Active returns the selected project, if any. A selection pointing at a
// project that no longer exists reads as no selection.
func (c *Controller) Active(ctx context.Context) (project.Project, bool) {
	id := c.activeID(ctx)
	if id == "" {
		return project.Project{}, false
	}
	return c.repo.Get(ctx, id)
}

func (c *Controller) activeID(ctx context.Context) string {
	return kvstore.Read(ctx, c.kv, ActiveKey, "")
}
