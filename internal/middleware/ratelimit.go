package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/safetrail/safetrail/internal/common/errors"
)

var (
	rlHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safetrail",
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by rate limiting",
		},
		[]string{"path"},
	)

	rlFailOpenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "safetrail",
			Name:      "rate_limit_fail_open_total",
			Help:      "Total number of requests allowed because Redis was unavailable",
		},
	)
)

// redisTimeout bounds each limiter round trip so a slow Redis never stalls scoring
const redisTimeout = 200 * time.Millisecond

// RateLimitConfig configures the distributed rate limiter
type RateLimitConfig struct {
	// Requests allowed per client IP per window
	Requests int
	Window   time.Duration
	// Paths exempt from rate limiting
	SkipPaths []string
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests:  100,
		Window:    time.Minute,
		SkipPaths: []string{"/", "/health", "/health/ready", "/health/live", "/metrics"},
	}
}

// DistributedRateLimit implements Redis-backed fixed window rate limiting keyed
// by client IP. If Redis is nil or unreachable it fails open.
func DistributedRateLimit(redisClient *redis.Client, cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	windowSecs := int64(cfg.Window.Seconds())
	if windowSecs < 1 {
		windowSecs = 1
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		if redisClient == nil {
			rlFailOpenTotal.Inc()
			c.Next()
			return
		}

		now := time.Now().Unix()
		key := fmt.Sprintf("safetrail:ratelimit:%s:%d", c.ClientIP(), now/windowSecs)

		ctx, cancel := context.WithTimeout(c.Request.Context(), redisTimeout)
		defer cancel()

		pipe := redisClient.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, time.Duration(windowSecs+1)*time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			rlFailOpenTotal.Inc()
			logger.Warn("Rate limit Redis error, failing open",
				zap.Error(err),
				zap.String("key", key))
			c.Next()
			return
		}

		count := incr.Val()
		remaining := int64(cfg.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Requests) {
			c.Header("Retry-After", strconv.FormatInt(windowSecs-now%windowSecs, 10))
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			rlHitsTotal.WithLabelValues(route).Inc()
			apperrors.HandleError(c, apperrors.RateLimit("rate limit exceeded"))
			c.Abort()
			return
		}

		c.Next()
	}
}
