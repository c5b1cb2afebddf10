package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hameedlatif/hospital-assistant/pkg/circuitbreaker"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
	"github.com/hameedlatif/hospital-assistant/pkg/ratelimiter"
)

// requestIDKey is the gin context key holding the request id.
const requestIDKey = "requestID"

// RequestID tags every request with an id, honoring one supplied by the
// caller, and echoes it in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// RequestLogger writes one structured log line per handled request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithPayload(map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  time.Since(start).String(),
			"requestID": c.GetString(requestIDKey),
		}).Info("Handled request")
	}
}

// CORS answers preflight requests and marks allowed origins. An empty list,
// or a list containing "*", allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimit rejects requests the limiter does not admit.
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please slow down"})
			return
		}
		c.Next()
	}
}

// CircuitBreak runs the rest of the chain through the breaker, counting 5xx
// responses as failures. While the circuit is open, requests are rejected
// without reaching the handler.
func CircuitBreak(cb circuitbreaker.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := cb.Execute(func() (interface{}, error) {
			c.Next()
			if status := c.Writer.Status(); status >= http.StatusInternalServerError {
				return nil, fmt.Errorf("server error: status code %d", status)
			}
			return nil, nil
		})
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable: circuit breaker is open"})
		}
	}
}
