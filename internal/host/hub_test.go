package host

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/fluxdock/internal/launcher"
	"github.com/p-blackswan/fluxdock/internal/notify"
)

var (
	_ launcher.Opener = (*Hub)(nil)
	_ notify.Notifier = (*Hub)(nil)
)

func TestPublishToSubscriber(t *testing.T) {
	h := NewHub(10, zerolog.Nop())
	backlog, frames, cancel := h.Subscribe()
	defer cancel()
	assert.Empty(t, backlog)

	h.OpenWindow("slides", map[string]any{"initialResult": "x"})
	require.NoError(t, h.Notify(context.Background(), notify.Notice{Level: notify.LevelWarning, Title: "careful"}))

	f := <-frames
	assert.Equal(t, FrameOpenWindow, f.Type)
	assert.Equal(t, "slides", f.App)
	assert.Equal(t, uint64(1), f.Seq)

	f = <-frames
	assert.Equal(t, FrameNotice, f.Type)
	require.NotNil(t, f.Notice)
	assert.Equal(t, "careful", f.Notice.Title)
	assert.Equal(t, uint64(2), f.Seq)
}

func TestActiveProjectFrame(t *testing.T) {
	h := NewHub(10, zerolog.Nop())
	h.ActiveProject("p-1")
	h.ActiveProject("")

	backlog := h.Backlog()
	require.Len(t, backlog, 2)
	assert.Equal(t, FrameActiveProject, backlog[0].Type)
	assert.Equal(t, "p-1", backlog[0].Project)
	assert.Empty(t, backlog[1].Project)
}

func TestBacklogReplayOldestFirst(t *testing.T) {
	h := NewHub(3, zerolog.Nop())
	for _, app := range []string{"a", "b", "c", "d"} {
		h.OpenWindow(app, nil)
	}

	backlog, _, cancel := h.Subscribe()
	defer cancel()
	require.Len(t, backlog, 3)
	assert.Equal(t, "b", backlog[0].App)
	assert.Equal(t, "d", backlog[2].App)
	assert.Equal(t, backlog, h.Backlog())
}

func TestSlowSubscriberDropsFrames(t *testing.T) {
	h := NewHub(1, zerolog.Nop())
	_, frames, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.OpenWindow("x", nil)
	}
	assert.Len(t, frames, subscriberBuffer)
}

func TestCancelClosesChannel(t *testing.T) {
	h := NewHub(1, zerolog.Nop())
	_, frames, cancel := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())

	cancel()
	cancel()
	_, open := <-frames
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers())

	assert.NotPanics(t, func() { h.OpenWindow("after", nil) })
}

func TestHubDrivesLauncher(t *testing.T) {
	h := NewHub(10, zerolog.Nop())
	l := launcher.New(h, nil, h, launcher.Options{}, zerolog.Nop(), nil)

	l.LaunchAppFromURL(context.Background(), launcher.AppFlux, "missing-id")

	frames := h.Backlog()
	require.Len(t, frames, 2)
	assert.Equal(t, FrameNotice, frames[0].Type)
	assert.Equal(t, notify.LevelWarning, frames[0].Notice.Level)
	assert.Equal(t, FrameOpenWindow, frames[1].Type)
	assert.Equal(t, launcher.AppFlux, frames[1].App)
	assert.Nil(t, frames[1].Props)
}
