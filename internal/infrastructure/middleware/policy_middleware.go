package middleware

import (
	"net/http"
	"strings"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// Context keys set by PolicyMiddleware for downstream handlers.
const (
	ContextKeyIdentity = "identity"
	ContextKeyStreamer = "streamer"
	ContextKeyRole     = "role"
)

const broadcasterHeader = "BroadcasterUserLogin"

// PolicyMiddleware authenticates the bearer token, resolves the
// caller's persisted role for the named streamer, and rejects the
// request unless the compiled policy admits its method. Absent or
// unresolvable roles deny.
func PolicyMiddleware(verifier ports.IdentityVerifier, access ports.AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		streamer := c.GetHeader(broadcasterHeader)
		if streamer == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "BroadcasterUserLogin header required"})
			c.Abort()
			return
		}

		subject, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
			c.Abort()
			return
		}

		identity := domain.Identity(subject.Login)
		policy, role, err := access.ResolveFromIdentity(c.Request.Context(), identity, domain.StreamerID(streamer))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		if !policy.PermitsMethod(c.Request.Method) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			c.Abort()
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Set(ContextKeyStreamer, domain.StreamerID(streamer))
		c.Set(ContextKeyRole, role)
		c.Next()
	}
}
