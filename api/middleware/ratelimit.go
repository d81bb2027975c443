package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tabgate/config"
	"github.com/use-agent/tabgate/models"
	"golang.org/x/time/rate"
)

// RateLimit enforces a per-caller token bucket (golang.org/x/time/rate). The
// caller identity is the API key when auth ran, the client IP otherwise.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	table := &callerTable{callers: make(map[string]*caller)}
	go table.sweep(5*time.Minute, time.Hour)

	return func(c *gin.Context) {
		id := c.ClientIP()
		if key, ok := c.Get("api_key"); ok {
			id = key.(string)
		}

		if !table.limiter(id, cfg).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}
		c.Next()
	}
}

type caller struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type callerTable struct {
	mu      sync.Mutex
	callers map[string]*caller
}

// limiter returns the caller's bucket, creating it on first sight.
func (t *callerTable) limiter(id string, cfg config.RateLimitConfig) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	cl, ok := t.callers[id]
	if !ok {
		cl = &caller{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
		t.callers[id] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

// sweep periodically drops callers idle longer than maxIdle so the table
// cannot grow without bound.
func (t *callerTable) sweep(every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-maxIdle)
		t.mu.Lock()
		for id, cl := range t.callers {
			if cl.lastSeen.Before(cutoff) {
				delete(t.callers, id)
			}
		}
		t.mu.Unlock()
	}
}
