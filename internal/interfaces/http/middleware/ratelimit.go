package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/sessiongate/internal/shared/logger"
	"github.com/orris-inc/sessiongate/internal/shared/utils"
)

// RateLimiter provides Redis-backed IP rate limiting using a fixed-window counter.
// Each IP gets a counter key with TTL equal to the window duration, so all
// instances sharing the Redis share the budget.
type RateLimiter struct {
	redisClient *redis.Client
	limit       int
	window      time.Duration
	prefix      string
	logger      logger.Interface
	now         func() time.Time
}

// minRateLimitWindow is the bucket granularity; windows are whole seconds.
const minRateLimitWindow = time.Second

// NewRateLimiter creates a new Redis-backed rate limiter.
// limit is the maximum number of requests allowed per window. The window is
// rounded down to whole seconds and never shorter than one second.
func NewRateLimiter(redisClient *redis.Client, prefix string, limit int, window time.Duration, logger logger.Interface) *RateLimiter {
	window = window.Truncate(minRateLimitWindow)
	if window < minRateLimitWindow {
		window = minRateLimitWindow
	}

	return &RateLimiter{
		redisClient: redisClient,
		limit:       limit,
		window:      window,
		prefix:      prefix,
		logger:      logger,
		now:         time.Now,
	}
}

// Limit returns a Gin middleware that enforces the rate limit per client IP.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		windowBucket := rl.now().Unix() / int64(rl.window.Seconds())
		key := fmt.Sprintf("%sratelimit:ip:%s:%d", rl.prefix, clientIP, windowBucket)

		ctx := context.Background()

		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis down: let the request through
			rl.logger.Warnw("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if count == 1 {
			rl.redisClient.Expire(ctx, key, rl.window+time.Second)
		}

		if count > int64(rl.limit) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
