package dock

import (
	"context"

	"github.com/p-blackswan/fluxdock/internal/project"
)

// View is a top-level workspace view.
type View string

const (
	ViewChat     View = "chat"
	ViewTasks    View = "tasks"
	ViewBrief    View = "brief"
	ViewAmbience View = "ambience"
)

// JumpTarget tells the UI what to activate for a window.
type JumpTarget struct {
	View       View   `json:"view"`
	ProjectID  string `json:"projectId"`
	WindowID   string `json:"windowId"`
	AmbienceID string `json:"ambienceId,omitempty"` // restored from a brief capture
	Backdrop   string `json:"backdrop,omitempty"`   // render snapshot
}

// Jump resolves the view a window belongs to.
func Jump(projectID string, w project.Window) JumpTarget {
	t := JumpTarget{ProjectID: projectID, WindowID: w.ID}
	switch w.Type {
	case project.WindowChat:
		t.View = ViewChat
	case project.WindowTasks:
		t.View = ViewTasks
	case project.WindowBrief:
		t.View = ViewBrief
		if id, ok := w.Meta["ambienceId"].(string); ok {
			t.AmbienceID = id
		}
	case project.WindowRender:
		t.View = ViewAmbience
		t.Backdrop = w.Snapshot
	default:
		t.View = ViewChat
	}
	return t
}

// JumpTo looks up a window of a project and resolves its view.
func (c *Controller) JumpTo(ctx context.Context, projectID, windowID string) (JumpTarget, bool) {
	for _, w := range c.windows.Windows(ctx, projectID) {
		if w.ID == windowID {
			return Jump(projectID, w), true
		}
	}
	return JumpTarget{}, false
}
