package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	Limit    int
	Window   time.Duration
	Name     string
	Policy   FailPolicy
	Disabled bool
}

// CheckRateLimit counts one hit for id against resource in a fixed window.
// Returns true if allowed, false if limit exceeded.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, errors.New("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// localLimiters is the per-process fallback used when no redis client is configured.
type localLimiters struct {
	limit  int
	window time.Duration
	byKey  sync.Map
}

func (l *localLimiters) allow(key string) bool {
	v, ok := l.byKey.Load(key)
	if !ok {
		every := l.window / time.Duration(l.limit)
		v, _ = l.byKey.LoadOrStore(key, rate.NewLimiter(rate.Every(every), l.limit))
	}
	return v.(*rate.Limiter).Allow()
}

// RateLimit returns a Fiber middleware enforcing opts.Limit requests per opts.Window.
// It keys by authenticated userID (if set in c.Locals("userID")) otherwise by remote IP.
// Without redis it falls back to an in-process token bucket per key.
func RateLimit(rdb *redis.Client, opts RateLimitOptions) fiber.Handler {
	if opts.Disabled || opts.Limit <= 0 || opts.Window <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	local := &localLimiters{limit: opts.Limit, window: opts.Window}

	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.Locals("userID").(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		resource := opts.Name
		if resource == "" {
			resource = c.Path()
		}

		if rdb == nil {
			if !local.allow(resource + ":" + id) {
				return tooManyRequests(c)
			}
			return c.Next()
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, opts.Limit, opts.Window)
		if err != nil {
			if opts.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}
		if !allowed {
			return tooManyRequests(c)
		}
		return c.Next()
	}
}

func tooManyRequests(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error": "rate limit exceeded",
	})
}
