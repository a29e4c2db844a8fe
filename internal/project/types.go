package project

import (
	"time"
)

// ActivityType classifies an activity log entry.
type ActivityType string

const (
	ActivityCreated   ActivityType = "CREATED"
	ActivityUpdated   ActivityType = "UPDATED"
	ActivityDeleted   ActivityType = "DELETED"
	ActivityGenerated ActivityType = "GENERATED" // created from a generation result
)

// WindowType is the closed set of window kinds a project can hold.
type WindowType string

const (
	WindowChat   WindowType = "chat"
	WindowBrief  WindowType = "brief"
	WindowTasks  WindowType = "tasks"
	WindowRender WindowType = "render"
)

// Valid reports whether t is one of the known window types.
func (t WindowType) Valid() bool {
	switch t {
	case WindowChat, WindowBrief, WindowTasks, WindowRender:
		return true
	}
	return false
}

// Project is a unit of creative work in the dock.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      *Plan     `json:"plan"`              // nil until populated
	Windows   []Window  `json:"windows,omitempty"` // newest first, bounded
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Plan is the substantive content of a project.
type Plan struct {
	Title        string            `json:"title,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	Tasks        []Task            `json:"tasks,omitempty"`
	Brief        map[string]string `json:"brief,omitempty"`
	Events       []CalendarEvent   `json:"events,omitempty"`
	ImagePrompts []string          `json:"imagePrompts,omitempty"`
}

// Task is one checklist item of a plan.
type Task struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// CalendarEvent is a scheduled item of a plan.
type CalendarEvent struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitempty"`
	Notes string    `json:"notes,omitempty"`
}

// Window is an ephemeral reference to a sub-artifact of a project.
type Window struct {
	ID        string         `json:"id"`
	Type      WindowType     `json:"type"`
	Title     string         `json:"title"`
	Snapshot  string         `json:"snapshot,omitempty"` // display reference (URL or data URI)
	Meta      map[string]any `json:"meta,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// WindowInput holds the caller-supplied fields of a new window.
type WindowInput struct {
	Type     WindowType     `json:"type"`
	Title    string         `json:"title"`
	Snapshot string         `json:"snapshot,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// ActivityEvent is one entry of the capped activity log.
type ActivityEvent struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	ProjectID   string       `json:"projectId"`
	ProjectName string       `json:"projectName"` // name at event time
	Timestamp   time.Time    `json:"timestamp"`
}

// Clone returns a deep copy of p so callers can mutate it freely.
func (p Project) Clone() Project {
	out := p
	if p.Plan != nil {
		plan := p.Plan.Clone()
		out.Plan = &plan
	}
	if p.Windows != nil {
		out.Windows = make([]Window, len(p.Windows))
		for i, w := range p.Windows {
			out.Windows[i] = w.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	out := p
	if p.Tasks != nil {
		out.Tasks = append([]Task(nil), p.Tasks...)
	}
	if p.Brief != nil {
		out.Brief = make(map[string]string, len(p.Brief))
		for k, v := range p.Brief {
			out.Brief[k] = v
		}
	}
	if p.Events != nil {
		out.Events = append([]CalendarEvent(nil), p.Events...)
	}
	if p.ImagePrompts != nil {
		out.ImagePrompts = append([]string(nil), p.ImagePrompts...)
	}
	return out
}

// Clone returns a copy of w with its meta deep-copied.
func (w Window) Clone() Window {
	out := w
	out.Meta = CloneMeta(w.Meta)
	return out
}

// CloneMeta deep-copies a JSON-shaped map (nested maps and slices included).
func CloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMeta(t)
	case map[string]string:
		c := make(map[string]string, len(t))
		for k, s := range t {
			c[k] = s
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
