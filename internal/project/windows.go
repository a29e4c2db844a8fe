package project

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/recent"
)

const maxWindowTitleLength = 200

// WindowRegistry manages the bounded, newest-first window list of each
// project. Windows live inside their project record, so deleting a project
// drops its windows too. Window changes refresh the project's updatedAt but
// are not logged as activity.
type WindowRegistry struct {
	repo *Repository
}

// NewWindowRegistry creates a registry backed by repo.
func NewWindowRegistry(repo *Repository) *WindowRegistry {
	return &WindowRegistry{repo: repo}
}

// Bound returns the maximum number of windows kept per project.
func (w *WindowRegistry) Bound() int {
	return w.repo.maxWindows
}

// Windows returns the project's windows, newest first.
func (w *WindowRegistry) Windows(ctx context.Context, projectID string) []Window {
	p, ok := w.repo.Get(ctx, projectID)
	if !ok {
		return nil
	}
	return p.Windows
}

// AddWindow prepends a new window to the project, evicting the oldest when
// the bound is exceeded. Returns nil without error for an unknown project.
func (w *WindowRegistry) AddWindow(ctx context.Context, projectID string, in WindowInput) (*Window, error) {
	if err := validateWindow(in); err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrInvalidInput, err)
	}

	win := Window{
		ID:       uuid.New().String(),
		Type:     in.Type,
		Title:    in.Title,
		Snapshot: in.Snapshot,
		Meta:     CloneMeta(in.Meta),
	}

	_, ok := w.repo.modify(ctx, projectID, func(p *Project) bool {
		win.UpdatedAt = w.repo.now()
		p.Windows = recent.Prepend(p.Windows, win, w.repo.maxWindows)
		return true
	})
	if !ok {
		return nil, nil
	}
	return &win, nil
}

// RemoveWindow drops a window from the project. Returns false when either the
// project or the window does not exist.
func (w *WindowRegistry) RemoveWindow(ctx context.Context, projectID, windowID string) bool {
	_, ok := w.repo.modify(ctx, projectID, func(p *Project) bool {
		var removed bool
		p.Windows, removed = recent.Remove(p.Windows, func(win Window) bool { return win.ID == windowID })
		return removed
	})
	return ok
}

func validateWindow(in WindowInput) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Type, validation.Required, validation.By(func(v interface{}) error {
			if t, _ := v.(WindowType); !t.Valid() {
				return fmt.Errorf("unknown window type %q", t)
			}
			return nil
		})),
		validation.Field(&in.Title, validation.RuneLength(0, maxWindowTitleLength)),
	)
}
