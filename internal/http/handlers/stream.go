package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strideworks/coachbridge-backend/internal/http/response"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/services"
)

// StreamHandler serves the per-thread live stream. Opening the stream
// opens a sync session: the viewer joins presence, the newest page is
// loaded, and every committed change on the thread is pushed until the
// connection drops.
type StreamHandler struct {
	log      *logger.Logger
	sessions services.SessionService
}

func NewStreamHandler(log *logger.Logger, sessions services.SessionService) *StreamHandler {
	return &StreamHandler{log: log.With("handler", "StreamHandler"), sessions: sessions}
}

// GET /api/chat/threads/:id/stream (SSE)
func (h *StreamHandler) Stream(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	session, err := h.sessions.Open(c.Request.Context(), threadID)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "open_stream_failed")
		return
	}
	defer session.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Flush()

	// Initial window snapshot so the viewer renders without a second
	// round trip.
	entries := session.Store.Entries()
	messages := make([]any, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, gin.H{"message": e.Message, "pending": e.Pending})
	}
	c.SSEvent("window", gin.H{
		"thread_id": threadID,
		"messages":  messages,
		"has_more":  session.Paginator.HasMore(),
		"presence":  session.PresenceCount(),
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case <-session.Done():
			return
		case evt := <-session.Events():
			c.SSEvent("change", evt)
			c.Writer.Flush()
		case snap, okc := <-session.PresenceUpdates():
			if !okc {
				return
			}
			c.SSEvent("presence", gin.H{
				"thread_id": snap.ThreadID,
				"user_ids":  snap.UserIDs,
				"count":     len(snap.UserIDs),
			})
			c.Writer.Flush()
		}
	}
}
