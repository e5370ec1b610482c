package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"picvault-backend/internal/config"
	"picvault-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter limits requests per IP + endpoint via Redis, with a local
// token-bucket fallback per IP when Redis is unreachable.
type RateLimiter struct {
	rdb *redis.Client
	cfg *config.Config

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

func NewRateLimiter(rdb *redis.Client, cfg *config.Config) *RateLimiter {
	return &RateLimiter{
		rdb:   rdb,
		cfg:   cfg,
		local: make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip rate limiting for health checks
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP() + ":" + c.FullPath()

		ctx := context.Background()
		count, err := rl.rdb.Incr(ctx, key).Result()
		if err != nil {
			// Redis down: fall back to the local limiter instead of
			// failing fully open.
			if !rl.localAllow(c.ClientIP()) {
				utils.RespondWithError(c, http.StatusTooManyRequests,
					"rate_limit_exceeded",
					"Too many requests. Please try again later.",
					gin.H{"retry_after": rl.cfg.RateLimitWindow})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		// Set expiration on first request
		if count == 1 {
			rl.rdb.Expire(ctx, key, time.Duration(rl.cfg.RateLimitWindow)*time.Second)
		}

		// Check limit
		if count > int64(rl.cfg.RateLimitReqs) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.RateLimitReqs))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(
				time.Now().Add(time.Duration(rl.cfg.RateLimitWindow)*time.Second).Unix(), 10))

			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"Too many requests. Please try again later.",
				gin.H{
					"retry_after": rl.cfg.RateLimitWindow,
					"limit":       rl.cfg.RateLimitReqs,
				})
			c.Abort()
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.RateLimitReqs))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.cfg.RateLimitReqs-int(count)))
		c.Next()
	}
}

func (rl *RateLimiter) localAllow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.local[ip]
	if !ok {
		perSecond := float64(rl.cfg.RateLimitReqs) / float64(rl.cfg.RateLimitWindow)
		limiter = rate.NewLimiter(rate.Limit(perSecond), rl.cfg.RateLimitReqs)
		rl.local[ip] = limiter
	}
	return limiter.Allow()
}
