package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Devlipesilva17/studio-sub000/internal/config"
)

// RateLimit returns a fixed-window request limiter backed by Redis.  Each
// client gets max requests per window, keyed by IP plus route.  When Redis
// is nil or the limiter is disabled, the middleware is a pass-through; a
// Redis error at request time also lets the request through rather than
// failing closed.
func RateLimit(cfg config.Config, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.RateLimitEnabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	window := cfg.RateLimitWindow
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			// Window boundary baked into the key: counters expire on their own.
			slot := time.Now().Unix() / int64(window/time.Second)
			key := fmt.Sprintf("rl:%s:%s:%d", ip, c.Path(), slot)

			ctx := c.Request().Context()
			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c) // limiter trouble must not take the API down
			}
			if count == 1 {
				rdb.Expire(ctx, key, window)
			}

			remaining := int64(cfg.RateLimitMax) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitMax))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.RateLimitMax) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window/time.Second)))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":   "too_many_requests",
					"message": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}
