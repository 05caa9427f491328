package middleware

import (
	"context"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestLoggerMiddleware tags each request with a correlation id and
// logs method, path, status and latency once the handler chain returns.
// A client-supplied X-Request-ID is honored so ids survive proxies.
func RequestLoggerMiddleware(zapLogger *zap.Logger) gin.HandlerFunc {
	ctxLogger := logger.NewContextLogger(zapLogger)

	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		// Identity is only known after the policy middleware has run.
		if identity, ok := c.Get(ContextKeyIdentity); ok {
			if id, ok := identity.(domain.Identity); ok {
				ctx = context.WithValue(ctx, logger.IdentityKey, string(id))
			}
		}

		ctxLogger.LogRequest(ctx, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Milliseconds())
	}
}
