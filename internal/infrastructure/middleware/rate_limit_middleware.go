package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"chatpulse/pkg/config"
	apperrors "chatpulse/pkg/errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterEntry pairs a per-client limiter with its last use so idle
// entries can be evicted.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiterPool struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rate    rate.Limit
	burst   int
}

const limiterIdleTTL = 10 * time.Minute

func newIPLimiterPool(r rate.Limit, burst int) *ipLimiterPool {
	p := &ipLimiterPool{
		entries: make(map[string]*limiterEntry),
		rate:    r,
		burst:   burst,
	}
	go p.evictIdle()
	return p
}

func (p *ipLimiterPool) allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, exists := p.entries[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(p.rate, p.burst)}
		p.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

func (p *ipLimiterPool) evictIdle() {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		for key, entry := range p.entries {
			if time.Since(entry.lastSeen) > limiterIdleTTL {
				delete(p.entries, key)
			}
		}
		p.mu.Unlock()
	}
}

// clientIP prefers X-Forwarded-For when it parses as an address, which
// matters behind the load balancer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := net.ParseIP(xff); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// NewHTTPRateLimitMiddleware throttles per client IP, with an optional
// global cap on in-flight requests. Rejections surface as AppErrors
// for the error handler to render.
func NewHTTPRateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	if !cfg.RateLimiting.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	pool := newIPLimiterPool(
		rate.Limit(cfg.RateLimiting.HTTP.RequestsPerSecond),
		cfg.RateLimiting.HTTP.Burst,
	)

	var inflight chan struct{}
	if cfg.RateLimiting.HTTP.MaxConcurrent > 0 {
		inflight = make(chan struct{}, cfg.RateLimiting.HTTP.MaxConcurrent)
	}

	return func(c *gin.Context) {
		if inflight != nil {
			select {
			case inflight <- struct{}{}:
				defer func() { <-inflight }()
			default:
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error": "too many concurrent requests",
				})
				return
			}
		}

		if !pool.allow(clientIP(c.Request)) {
			appErr := apperrors.NewRateLimitError()
			c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
				"error":   string(appErr.Code),
				"message": appErr.Message,
			})
			return
		}
		c.Next()
	}
}
