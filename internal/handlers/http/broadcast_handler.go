package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// BroadcastHandler accepts classified messages from the analyzer and
// fans them out to the broadcaster's registered connections. It is
// mounted on the internal listener only.
type BroadcastHandler struct {
	broadcaster ports.Broadcaster
}

func NewBroadcastHandler(broadcaster ports.Broadcaster) *BroadcastHandler {
	return &BroadcastHandler{broadcaster: broadcaster}
}

func (h *BroadcastHandler) SetupRoutes(router *gin.Engine) {
	router.POST("/internal/broadcast", h.Broadcast)
}

func (h *BroadcastHandler) Broadcast(c *gin.Context) {
	var msg domain.ClassifiedMessage
	if err := c.BindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg.Broadcaster == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "broadcaster_user_login is required"})
		return
	}

	payload, err := json.Marshal(domain.Envelope{
		Type: domain.EnvelopeTypeProcessedMessage,
		Data: msg,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	err = h.broadcaster.Broadcast(c.Request.Context(), msg.Broadcaster, payload)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "delivered"})
		return
	}

	if errors.Is(err, domain.ErrNoActiveConnections) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active connections for broadcaster"})
		return
	}

	var partial *domain.PartialDeliveryError
	if errors.As(err, &partial) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "partial delivery",
			"failed": partial.FailedHandles(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
