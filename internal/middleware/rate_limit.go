package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRateLimit is a fixed-window rate limiter backed by Redis, applied to
// the auth routes to slow down OTP and credential abuse. It works across
// instances. A nil client disables limiting (single-node dev setups without
// Redis); requests then pass through with a warning logged once per request.
func RedisRateLimit(client *redis.Client, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if client == nil {
				logger.Log.Warn("Redis rate limiter unavailable, allowing request")
				return next(c)
			}

			clientIP := clientIP(c.Request().RemoteAddr)
			key := fmt.Sprintf("rate_limit:%s:%s", c.Path(), clientIP)
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()

			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				// A broken limiter must not open the API wide up.
				logger.Log.Error("Rate limit check failed - rejecting request",
					zap.String("client_ip", clientIP), zap.Error(err))
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Service temporarily unavailable")
			}
			if count == 1 {
				if err := client.Expire(ctx, key, window).Err(); err != nil {
					logger.Log.Warn("Failed to set rate limit window", zap.Error(err))
				}
			}

			if count > int64(maxRequests) {
				logger.Log.Warn("Rate limit exceeded",
					zap.String("client_ip", clientIP),
					zap.Int("max_requests", maxRequests),
					zap.Int64("current_requests", count),
				)
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
