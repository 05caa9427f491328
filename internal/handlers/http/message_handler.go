package http

import (
	"net/http"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves classified message history. Routes are mounted
// behind PolicyMiddleware, so the streamer scope comes from the
// middleware context.
type MessageHandler struct {
	messages ports.MessageRepository
}

func NewMessageHandler(messages ports.MessageRepository) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// SetupRoutes mounts history routes onto a policy-guarded group.
func (h *MessageHandler) SetupRoutes(guarded *gin.RouterGroup) {
	guarded.GET("/messages", h.ListMessages)
}

func (h *MessageHandler) ListMessages(c *gin.Context) {
	streamerVal, exists := c.Get("streamer")
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "streamer scope missing"})
		return
	}
	streamer, ok := streamerVal.(domain.StreamerID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid streamer scope"})
		return
	}

	filter := domain.MessageFilter{
		Broadcaster: streamer,
		StreamID:    c.Query("stream_id"),
		Chatter:     c.Query("chatter"),
	}

	if start := c.Query("start"); start != "" {
		ts, err := time.Parse(time.RFC3339, start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start timestamp"})
			return
		}
		filter.Start = ts
	}
	if end := c.Query("end"); end != "" {
		ts, err := time.Parse(time.RFC3339, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end timestamp"})
			return
		}
		filter.End = ts
	}

	messages, err := h.messages.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(messages) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
