package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRateLimit_NilRedis(t *testing.T) {
	allowed, err := CheckRateLimit(context.Background(), nil, "likes", "user:1", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestCheckRateLimit_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "likes", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := CheckRateLimit(ctx, rdb, "likes", "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.True(t, mr.Exists("rl:likes:user:1"))
	assert.Equal(t, time.Minute, mr.TTL("rl:likes:user:1"))
}

func hit(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/like", nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRateLimit_LocalFallback(t *testing.T) {
	app := fiber.New()
	app.Post("/like", RateLimit(nil, RateLimitOptions{Limit: 2, Window: time.Hour, Name: "likes"}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	assert.Equal(t, http.StatusOK, hit(t, app))
	assert.Equal(t, http.StatusOK, hit(t, app))
	assert.Equal(t, http.StatusTooManyRequests, hit(t, app))
}

func TestRateLimit_Disabled(t *testing.T) {
	app := fiber.New()
	app.Post("/like", RateLimit(nil, RateLimitOptions{Limit: 1, Window: time.Hour, Disabled: true}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(t, app))
	}
}

func TestRateLimit_FailClosedOnRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	app := fiber.New()
	app.Post("/like", RateLimit(rdb, RateLimitOptions{Limit: 5, Window: time.Minute, Policy: FailClosed}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	assert.Equal(t, http.StatusServiceUnavailable, hit(t, app))
}
