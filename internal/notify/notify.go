// Package notify delivers user-visible notices (toasts and warnings).
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Level describes the urgency of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Source  string    `json:"source,omitempty"` // subsystem that raised it
	Err     error     `json:"-"`
	At      time.Time `json:"at"`
}

// Notifier delivers notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Multi fans out to multiple notifiers.
type Multi struct {
	notifiers []Notifier
}

// NewMulti creates a fan-out notifier. Nil entries are skipped.
func NewMulti(ns ...Notifier) *Multi {
	m := &Multi{}
	for _, n := range ns {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Notify delivers n to every notifier and joins their errors.
func (m *Multi) Notify(ctx context.Context, n Notice) error {
	var errs []error
	for _, nt := range m.notifiers {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notices to the log.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

func (l *LogNotifier) Notify(_ context.Context, n Notice) error {
	ev := l.logger.Info()
	switch n.Level {
	case LevelWarning:
		ev = l.logger.Warn()
	case LevelError:
		ev = l.logger.Error()
	}
	ev.Str("title", n.Title).
		Str("source", n.Source).
		Err(n.Err).
		Msg(n.Message)
	return nil
}

// Send stamps n and delivers it, logging instead of returning delivery
// failures. A nil notifier drops the notice.
func Send(ctx context.Context, nt Notifier, n Notice) {
	if nt == nil {
		return
	}
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	if err := nt.Notify(ctx, n); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("title", n.Title).Msg("notice delivery failed")
	}
}
