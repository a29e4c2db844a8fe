package dock

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/fluxdock/internal/kvstore"
	"github.com/p-blackswan/fluxdock/internal/project"
)

func setupController(t *testing.T, opts Options) *Controller {
	t.Helper()
	kv := kvstore.New(kvstore.NewMemory(), zerolog.Nop(), nil)
	repo := project.NewRepository(kv, project.Options{}, zerolog.Nop(), nil)
	return New(repo, project.NewWindowRegistry(repo), kv, opts, zerolog.Nop())
}

func TestCreateProjectSelectsIt(t *testing.T) {
	c := setupController(t, Options{})
	ctx := context.Background()

	p, err := c.CreateProject(ctx, "Autumn Campaign", nil, false)
	require.NoError(t, err)

	active, ok := c.Active(ctx)
	require.True(t, ok)
	assert.Equal(t, p.ID, active.ID)
	assert.Equal(t, project.ActivityCreated, c.Projects().Activity(ctx)[0].Type)
}

func TestCreateProjectGenerated(t *testing.T) {
	c := setupController(t, Options{})
	ctx := context.Background()

	_, err := c.CreateProject(ctx, "From a goal", &project.Plan{Title: "Goal"}, true)
	require.NoError(t, err)
	assert.Equal(t, project.ActivityGenerated, c.Projects().Activity(ctx)[0].Type)
}

func TestDeleteProjectClearsSelection(t *testing.T) {
	c := setupController(t, Options{})
	ctx := context.Background()

	a, err := c.CreateProject(ctx, "A", nil, false)
	require.NoError(t, err)
	b, err := c.CreateProject(ctx, "B", nil, false)
	require.NoError(t, err)

	// deleting a non-selected project keeps the selection
	assert.True(t, c.DeleteProject(ctx, a.ID))
	active, ok := c.Active(ctx)
	require.True(t, ok)
	assert.Equal(t, b.ID, active.ID)

	assert.True(t, c.DeleteProject(ctx, b.ID))
	_, ok = c.Active(ctx)
	assert.False(t, ok)

	assert.False(t, c.DeleteProject(ctx, b.ID))
}

func TestSelect(t *testing.T) {
	c := setupController(t, Options{})
	ctx := context.Background()

	a, _ := c.CreateProject(ctx, "A", nil, false)
	_, _ = c.CreateProject(ctx, "B", nil, false)

	assert.True(t, c.Select(ctx, a.ID))
	active, _ := c.Active(ctx)
	assert.Equal(t, a.ID, active.ID)

	assert.False(t, c.Select(ctx, "missing"))
	active, _ = c.Active(ctx)
	assert.Equal(t, a.ID, active.ID)

	c.ClearSelection(ctx)
	_, ok := c.Active(ctx)
	assert.False(t, ok)
}

func TestQuickCaptureCopiesState(t *testing.T) {
	c := setupController(t, Options{})
	ctx := context.Background()
	p, _ := c.CreateProject(ctx, "Capture", nil, false)

	state := SessionState{
		AmbienceID: "rain-cafe",
		Brief:      map[string]string{"audience": "students"},
	}
	w, err := c.QuickCapture(ctx, p.ID, state)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, project.WindowBrief, w.Type)
	assert.True(t, strings.HasPrefix(w.Title, "Brief snapshot"))

	// later changes to the source state must not leak into the window
	state.Brief["audience"] = "retirees"
	state.AmbienceID = "forest"

	stored := c.Windows().Windows(ctx, p.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, "rain-cafe", stored[0].Meta["ambienceId"])
	brief, ok := stored[0].Meta["brief"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "students", brief["audience"])
	assert.NotEmpty(t, stored[0].Meta["capturedAt"])
}

func TestQuickCaptureUnknownProject(t *testing.T) {
	c := setupController(t, Options{})
	w, err := c.QuickCapture(context.Background(), "missing", SessionState{Title: "x"})
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestUploadBound(t *testing.T) {
	c := setupController(t, Options{MaxUploads: 4})
	ctx := context.Background()
	p, _ := c.CreateProject(ctx, "Uploads", nil, false)

	var files []Upload
	for i := 0; i < 6; i++ {
		files = append(files, Upload{
			Name:        fmt.Sprintf("shot-%d.png", i),
			ContentType: "image/png",
			Data:        []byte{0x89, 'P', 'N', 'G'},
		})
	}

	res, err := c.Upload(ctx, p.ID, files)
	require.NoError(t, err)
	assert.Len(t, res.Windows, 4)
	assert.Equal(t, 2, res.Dropped)

	stored := c.Windows().Windows(ctx, p.ID)
	require.Len(t, stored, 4)
	// newest first: the last kept file is on top
	assert.Equal(t, "shot-3.png", stored[0].Title)
	for _, w := range stored {
		assert.Equal(t, project.WindowRender, w.Type)
		assert.True(t, strings.HasPrefix(w.Snapshot, "data:image/png;base64,"))
	}
}

func TestDataURISniffsContentType(t *testing.T) {
	uri := DataURI("", []byte("hello"))
	assert.Equal(t, "data:text/plain;base64,aGVsbG8=", uri)

	uri = DataURI("image/jpeg; q=1", []byte{1})
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
}

func TestJump(t *testing.T) {
	tests := []struct {
		name     string
		window   project.Window
		view     View
		ambience string
		backdrop string
	}{
		{name: "chat", window: project.Window{ID: "w1", Type: project.WindowChat}, view: ViewChat},
		{name: "tasks", window: project.Window{ID: "w2", Type: project.WindowTasks}, view: ViewTasks},
		{
			name:     "brief restores ambience",
			window:   project.Window{ID: "w3", Type: project.WindowBrief, Meta: map[string]any{"ambienceId": "rain"}},
			view:     ViewBrief,
			ambience: "rain",
		},
		{name: "brief without ambience", window: project.Window{ID: "w4", Type: project.WindowBrief}, view: ViewBrief},
		{
			name:     "render",
			window:   project.Window{ID: "w5", Type: project.WindowRender, Snapshot: "data:image/png;base64,AA=="},
			view:     ViewAmbience,
			backdrop: "data:image/png;base64,AA==",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Jump("p1", tt.window)
			assert.Equal(t, tt.view, got.View)
			assert.Equal(t, "p1", got.ProjectID)
			assert.Equal(t, tt.window.ID, got.WindowID)
			assert.Equal(t, tt.ambience, got.AmbienceID)
			assert.Equal(t, tt.backdrop, got.Backdrop)
		})
	}
}

func TestJumpTo(t *testing.T) {
	c := setupController(t, Options{})
	ctx := context.Background()
	p, _ := c.CreateProject(ctx, "Jump", nil, false)

	w, err := c.QuickCapture(ctx, p.ID, SessionState{AmbienceID: "dusk"})
	require.NoError(t, err)

	target, ok := c.JumpTo(ctx, p.ID, w.ID)
	require.True(t, ok)
	assert.Equal(t, ViewBrief, target.View)
	assert.Equal(t, "dusk", target.AmbienceID)

	_, ok = c.JumpTo(ctx, p.ID, "missing")
	assert.False(t, ok)
}
