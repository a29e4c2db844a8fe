package project

import (
	"context"
	"fmt"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/kvstore"
	"github.com/p-blackswan/fluxdock/internal/metrics"
	"github.com/p-blackswan/fluxdock/internal/recent"
)

// Keys of the persisted collections.
const (
	ProjectsKey = "dock:projects"
	ActivityKey = "dock:activity"
)

const (
	DefaultMaxActivity = 10
	DefaultMaxWindows  = 30
	maxNameLength      = 120
)

// Options bounds the persisted lists.
type Options struct {
	MaxActivity int
	MaxWindows  int
}

// Repository is CRUD over the persisted project list plus the activity log.
// Every write is a full read-modify-write of the collection done under the
// mutex, which serializes writers inside one process.
type Repository struct {
	kv          *kvstore.Store
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	maxActivity int
	maxWindows  int
	now         func() time.Time

	mu sync.Mutex
}

// NewRepository creates a project repository over kv.
func NewRepository(kv *kvstore.Store, opts Options, logger zerolog.Logger, m *metrics.Metrics) *Repository {
	if opts.MaxActivity < 1 {
		opts.MaxActivity = DefaultMaxActivity
	}
	if opts.MaxWindows < 1 {
		opts.MaxWindows = DefaultMaxWindows
	}
	return &Repository{
		kv:          kv,
		logger:      logger.With().Str("component", "project.repository").Logger(),
		metrics:     m,
		maxActivity: opts.MaxActivity,
		maxWindows:  opts.MaxWindows,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source (tests).
func (r *Repository) SetClock(now func() time.Time) {
	r.now = now
}

// List returns all projects. No ordering is imposed here.
func (r *Repository) List(ctx context.Context) []Project {
	return kvstore.Read(ctx, r.kv, ProjectsKey, []Project{})
}

// Get returns the project with id.
func (r *Repository) Get(ctx context.Context, id string) (Project, bool) {
	for _, p := range r.List(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// Activity returns the activity log, newest first.
func (r *Repository) Activity(ctx context.Context) []ActivityEvent {
	return kvstore.Read(ctx, r.kv, ActivityKey, []ActivityEvent{})
}

// Create persists a new project and logs one activity event of the given
// type (ActivityCreated or ActivityGenerated). A project whose id already
// exists replaces the stored one, so ids stay unique.
func (r *Repository) Create(ctx context.Context, p Project, activity ActivityType) (Project, error) {
	if activity != ActivityCreated && activity != ActivityGenerated {
		return Project{}, fmt.Errorf("%w: activity type %q", perrors.ErrInvalidInput, activity)
	}
	if err := validateProject(p); err != nil {
		return Project{}, fmt.Errorf("%w: %v", perrors.ErrInvalidInput, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	p = p.Clone()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Windows = recent.Truncate(p.Windows, r.maxWindows)

	projects := r.List(ctx)
	replaced := false
	for i := range projects {
		if projects[i].ID == p.ID {
			projects[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		projects = append(projects, p)
	}
	kvstore.Write(ctx, r.kv, ProjectsKey, projects)
	r.appendActivity(ctx, activity, p)

	r.logger.Info().Str("project_id", p.ID).Str("activity", string(activity)).Msg("project created")
	return p, nil
}

// Update replaces the stored project with the same id. Windows are owned by
// the WindowRegistry, so the stored window list is kept whatever p carries.
// Unknown ids are a silent no-op and return false.
func (r *Repository) Update(ctx context.Context, p Project) (Project, bool, error) {
	next := p.Clone()
	return r.Edit(ctx, p.ID, func(cur *Project) error {
		cur.Name = next.Name
		cur.Plan = next.Plan
		return nil
	})
}

// Edit applies fn to the stored project with id and persists the result as
// one UPDATED change. The read, fn and the write all happen under the writer
// lock. An error from fn or from validation aborts without writing. Unknown
// ids return false.
func (r *Repository) Edit(ctx context.Context, id string, fn func(p *Project) error) (Project, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	projects := r.List(ctx)
	for i := range projects {
		if projects[i].ID != id {
			continue
		}
		next := projects[i].Clone()
		if err := fn(&next); err != nil {
			return Project{}, false, err
		}
		if err := validateProject(next); err != nil {
			return Project{}, false, fmt.Errorf("%w: %v", perrors.ErrInvalidInput, err)
		}
		next.ID = projects[i].ID
		next.CreatedAt = projects[i].CreatedAt
		next.UpdatedAt = r.now()
		next.Windows = projects[i].Windows
		projects[i] = next

		kvstore.Write(ctx, r.kv, ProjectsKey, projects)
		r.appendActivity(ctx, ActivityUpdated, next)
		return next, true, nil
	}
	return Project{}, false, nil
}

// Delete removes the project with id and logs its pre-deletion name. Unknown
// ids leave both the collection and the activity log untouched.
func (r *Repository) Delete(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	projects := r.List(ctx)
	var deleted *Project
	remaining, removed := recent.Remove(projects, func(p Project) bool {
		if p.ID == id {
			cp := p
			deleted = &cp
			return true
		}
		return false
	})
	if !removed {
		return false
	}

	kvstore.Write(ctx, r.kv, ProjectsKey, remaining)
	r.appendActivity(ctx, ActivityDeleted, *deleted)
	r.logger.Info().Str("project_id", id).Msg("project deleted")
	return true
}

// Rename sets the display name.
func (r *Repository) Rename(ctx context.Context, id, name string) (Project, bool, error) {
	return r.Edit(ctx, id, func(p *Project) error {
		p.Name = name
		return nil
	})
}

// SetPlan replaces the plan.
func (r *Repository) SetPlan(ctx context.Context, id string, plan *Plan) (Project, bool, error) {
	if plan != nil {
		cp := plan.Clone()
		plan = &cp
	}
	return r.Edit(ctx, id, func(p *Project) error {
		p.Plan = plan
		return nil
	})
}

// ToggleTask flips the done flag of the checklist item at index.
func (r *Repository) ToggleTask(ctx context.Context, id string, index int) (Project, bool, error) {
	return r.Edit(ctx, id, func(p *Project) error {
		if p.Plan == nil || index < 0 || index >= len(p.Plan.Tasks) {
			return fmt.Errorf("%w: task %d", perrors.ErrInvalidInput, index)
		}
		p.Plan.Tasks[index].Done = !p.Plan.Tasks[index].Done
		return nil
	})
}

// modify applies fn to the project with id and persists it without logging
// activity. fn returns false to abort without writing.
func (r *Repository) modify(ctx context.Context, id string, fn func(p *Project) bool) (Project, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	projects := r.List(ctx)
	for i := range projects {
		if projects[i].ID != id {
			continue
		}
		if !fn(&projects[i]) {
			return projects[i], false
		}
		projects[i].UpdatedAt = r.now()
		kvstore.Write(ctx, r.kv, ProjectsKey, projects)
		return projects[i], true
	}
	return Project{}, false
}

func (r *Repository) appendActivity(ctx context.Context, t ActivityType, p Project) {
	evt := ActivityEvent{
		ID:          uuid.New().String(),
		Type:        t,
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Timestamp:   r.now(),
	}
	log := recent.Prepend(r.Activity(ctx), evt, r.maxActivity)
	kvstore.Write(ctx, r.kv, ActivityKey, log)
	r.metrics.RecordActivity(string(t))
}

func validateProject(p Project) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.RuneLength(1, maxNameLength)),
	)
}
