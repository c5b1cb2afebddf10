package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hameedlatif/hospital-assistant/internal/config"
	"github.com/hameedlatif/hospital-assistant/pkg/circuitbreaker"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
	"github.com/hameedlatif/hospital-assistant/pkg/ratelimiter"
)

// NewRouter configures the gin engine: banner and health routes at the root,
// the chat API under /api/v1, and the configured middleware on the chat
// group.
func NewRouter(cfg *config.AppConfig, h *Handler, log *logger.Logger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log), CORS(cfg.Server.AllowOrigins))

	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	apiV1 := r.Group("/api/v1")
	chat := apiV1.Group("/chat")

	if mw := cfg.Middleware.RateLimiter; mw.Enabled {
		log.WithField("rate", mw.TokenBucket.Rate).Info("Enabling rate limiter middleware")
		chat.Use(RateLimit(ratelimiter.NewTokenBucket(mw.TokenBucket.Rate, mw.TokenBucket.Capacity)))
	}
	if mw := cfg.Middleware.CircuitBreaker; mw.Enabled {
		cooldown, err := time.ParseDuration(mw.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid circuit breaker timeout: %w", err)
		}
		log.Info("Enabling circuit breaker middleware")
		chat.Use(CircuitBreak(circuitbreaker.New(mw.FailureThreshold, mw.SuccessThreshold, cooldown)))
	}

	{
		chat.POST("", h.Chat)
		chat.DELETE("/sessions/:id", h.ClearSession)
	}

	return r, nil
}
