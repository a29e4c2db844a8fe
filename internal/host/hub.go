// Package host publishes window opens and notices to connected UI clients.
package host

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/fluxdock/internal/notify"
	"github.com/p-blackswan/fluxdock/internal/recent"
)

// FrameType identifies the payload of a frame.
type FrameType string

const (
	FrameOpenWindow    FrameType = "open_window"
	FrameNotice        FrameType = "notice"
	FrameActiveProject FrameType = "active_project"
)

const (
	DefaultBacklog   = 50
	subscriberBuffer = 64
)

// Frame is one event delivered to the UI.
type Frame struct {
	Seq     uint64         `json:"seq"`
	Type    FrameType      `json:"type"`
	App     string         `json:"app,omitempty"`
	Props   map[string]any `json:"props,omitempty"`
	Notice  *notify.Notice `json:"notice,omitempty"`
	Project string         `json:"project,omitempty"` // empty when the selection was cleared
	At      time.Time      `json:"at"`
}

// Hub fans frames out to subscribers and keeps a replay backlog for clients
// that connect late. Slow subscribers lose frames rather than block the hub.
type Hub struct {
	mu      sync.Mutex
	seq     uint64
	subs    map[uint64]chan Frame
	nextSub uint64
	backlog *recent.List[Frame]
	logger  zerolog.Logger
}

// NewHub creates a hub replaying up to backlog frames.
func NewHub(backlog int, logger zerolog.Logger) *Hub {
	if backlog < 1 {
		backlog = DefaultBacklog
	}
	return &Hub{
		subs:    make(map[uint64]chan Frame),
		backlog: recent.New[Frame](backlog),
		logger:  logger.With().Str("component", "host").Logger(),
	}
}

// OpenWindow publishes an open_window frame.
func (h *Hub) OpenWindow(appID string, props map[string]any) {
	h.publish(Frame{Type: FrameOpenWindow, App: appID, Props: props})
}

// Notify publishes a notice frame.
func (h *Hub) Notify(_ context.Context, n notify.Notice) error {
	h.publish(Frame{Type: FrameNotice, Notice: &n})
	return nil
}

// ActiveProject publishes the newly selected project id, or "" when the
// selection was cleared.
func (h *Hub) ActiveProject(projectID string) {
	h.publish(Frame{Type: FrameActiveProject, Project: projectID})
}

func (h *Hub) publish(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	f.Seq = h.seq
	f.At = time.Now().UTC()
	h.backlog.Push(f)

	for id, ch := range h.subs {
		select {
		case ch <- f:
		default:
			h.logger.Warn().Uint64("subscriber", id).Uint64("seq", f.Seq).Msg("subscriber too slow, frame dropped")
		}
	}
}

// Subscribe registers a subscriber. It returns the backlog (oldest first),
// the live frame channel and a cancel function that closes the channel.
func (h *Hub) Subscribe() ([]Frame, <-chan Frame, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSub++
	id := h.nextSub
	ch := make(chan Frame, subscriberBuffer)
	h.subs[id] = ch
	h.logger.Debug().Uint64("subscriber", id).Msg("subscriber connected")

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return h.replay(), ch, cancel
}

// Backlog returns the retained frames, oldest first.
func (h *Hub) Backlog() []Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replay()
}

func (h *Hub) replay() []Frame {
	items := h.backlog.Items()
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
