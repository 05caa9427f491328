package http

import (
	"net/http"
	"strings"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// AuthHandler resolves a caller's role for a streamer from their
// platform credential and persists it for later policy checks.
type AuthHandler struct {
	identity ports.IdentityVerifier
	access   ports.AccessService
}

// NewAuthHandler wires the role resolution endpoint. identity verifies
// the signed identity-platform token carried in Authorization.
func NewAuthHandler(identity ports.IdentityVerifier, access ports.AccessService) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		access:   access,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/auth/role", h.ResolveRole)
	}
}

func (h *AuthHandler) ResolveRole(c *gin.Context) {
	bearer, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization header required"})
		return
	}

	var req struct {
		TwitchToken     string `json:"twitch_token" binding:"required"`
		BroadcasterName string `json:"broadcaster_user_login" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject, err := h.identity.Verify(c.Request.Context(), bearer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid identity token"})
		return
	}

	policy, role, err := h.access.Resolve(c.Request.Context(), ports.AuthorizationRequest{
		Credential: req.TwitchToken,
		Identity:   domain.Identity(subject.Login),
		Streamer:   domain.StreamerID(req.BroadcasterName),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"role":   role,
		"policy": policy,
	})
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
