package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/p-blackswan/fluxdock/internal/host"
)

const keepAliveInterval = 20 * time.Second

// events streams host frames as server-sent events. The backlog is replayed
// first; the stream ends when the client goes away.
func (s *Server) events(c *fiber.Ctx) error {
	if s.deps.Hub == nil {
		return problemResponse(c, fiber.StatusServiceUnavailable, "no_host", "Service Unavailable", "Event stream is not configured")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	backlog, frames, cancel := s.deps.Hub.Subscribe()
	logger := s.logger.With().Str("request_id", c.GetRespHeader("X-Request-ID")).Logger()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for _, f := range backlog {
			if err := writeFrame(w, f); err != nil {
				return
			}
		}
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case f, ok := <-frames:
				if !ok {
					return
				}
				if err := writeFrame(w, f); err != nil {
					logger.Debug().Err(err).Msg("event stream closed")
					return
				}
			case <-ticker.C:
				if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				logger.Debug().Err(err).Msg("event stream closed")
				return
			}
		}
	}))
	return nil
}

// writeFrame encodes one frame in event-stream format.
func writeFrame(w io.Writer, f host.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", f.Seq, f.Type, data)
	return err
}
