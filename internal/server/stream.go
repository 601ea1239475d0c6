package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// heartbeatInterval keeps intermediaries from timing out an idle
// stream. Heartbeats are comment-only lines and carry no event.
const heartbeatInterval = 30 * time.Second

// handleEventStream opens a long-lived Server-Sent Events connection.
// The credential travels as a query parameter because EventSource
// cannot set headers on the initial request; an invalid credential is
// rejected before anything is registered.
func (s *Server) handleEventStream(c *gin.Context) {
	claims, err := s.auth.Verify(c.Query("token"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	w := c.Writer
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	// Prevents Nginx from buffering the stream.
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Initial comment flushes proxy buffers.
	fmt.Fprint(w, ":connected\n\n")
	w.Flush()

	stream := s.events.Register(claims.UserID)
	defer s.events.Deregister(stream)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ":heartbeat\n\n"); err != nil {
				s.logger.Warn("stream write failed", slog.String("user_id", claims.UserID))
				return
			}
			w.Flush()
		case ev := <-stream.Events():
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data); err != nil {
				s.logger.Warn("stream write failed", slog.String("user_id", claims.UserID))
				return
			}
			w.Flush()
		}
	}
}
