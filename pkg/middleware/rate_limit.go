package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gazra/gazra/backend/go-services/pkg/metrics"
	"golang.org/x/time/rate"
)

// limitKey picks the rate limit key for a request: the authenticated subject
// when claims are present, otherwise the client IP. Requests to routes with a
// :collection parameter are limited per collection, so a visitor who books a
// table can still sign up as a volunteer.
func limitKey(c *gin.Context) string {
	var key string
	if v, ok := c.Get(ClaimsKey); ok {
		if cm, ok2 := v.(map[string]interface{}); ok2 {
			if sub, ok3 := cm["sub"].(string); ok3 && sub != "" {
				key = "sub:" + sub
			}
		}
	}
	if key == "" {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key = "ip:" + ip
	}
	if col := c.Param("collection"); col != "" {
		key += ":" + col
	}
	return key
}

func reject(c *gin.Context, limiter, retryAfter string) {
	c.Header("Retry-After", retryAfter)
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many submissions, please try again later"})
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-memory
// token-bucket per key (see limitKey). rps = allowed events per second,
// burst = maximum tokens in bucket. Each call gets its own limiter store.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	var store sync.Map // map[string]*rate.Limiter
	get := func(key string) *rate.Limiter {
		if v, ok := store.Load(key); ok {
			return v.(*rate.Limiter)
		}
		v, _ := store.LoadOrStore(key, rate.NewLimiter(rate.Limit(rps), burst))
		return v.(*rate.Limiter)
	}
	return func(c *gin.Context) {
		if !get(limitKey(c)).Allow() {
			reject(c, "memory", "1")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
