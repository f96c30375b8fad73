package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per client IP in fixed Redis windows.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter allows maxReqs per windowSec seconds. A nil client
// disables limiting.
func NewRateLimiter(rdb *redis.Client, maxReqs, windowSec int) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  int64(maxReqs),
		window: time.Duration(windowSec) * time.Second,
	}
}

// Handler returns a Fiber middleware handler for rate limiting.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		if rl.rdb == nil || rl.limit <= 0 {
			return c.Next()
		}

		count, ttl, err := rl.hit(c, "ratelimit:"+c.IP())
		if err != nil {
			// fail open
			slog.Warn("rate limiter unavailable", "error", err)
			return c.Next()
		}

		reset := int(ttl.Seconds())
		c.Set("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, rl.limit-count), 10))
		c.Set("X-RateLimit-Reset", strconv.Itoa(reset))

		if count > rl.limit {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"retry_after": reset,
			})
		}
		return c.Next()
	}
}

// hit increments key and returns the count and remaining window. A key
// left without an expiry is given one so a client can never be locked
// out for good.
func (rl *RateLimiter) hit(c fiber.Ctx, key string) (int64, time.Duration, error) {
	ctx := c.Context()

	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	ttl, err := rl.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		if err := rl.rdb.Expire(ctx, key, rl.window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = rl.window
	}
	return count, ttl, nil
}
