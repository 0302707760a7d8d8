package middleware

import (
	"context"
	"net/http"
	"strconv"

	"tableside/internal/redis"
	"tableside/internal/services"
	"tableside/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type allowFunc func(ctx context.Context, key string) (*redis.RateLimitResult, error)

// AuthRateLimitMiddleware limits login attempts per client IP.
func AuthRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limit(limiter.AllowAuth, func(c *gin.Context) (string, bool) {
		return c.ClientIP(), true
	}, "rate limit exceeded")
}

// StreamRateLimitMiddleware limits stream connects per principal. Must run after AuthMiddleware.
func StreamRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limit(limiter.AllowStream, principalKey, "stream rate limit exceeded")
}

func CallWaiterRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limit(limiter.AllowCallWaiter, principalKey, "waiter already called, please wait")
}

func NotificationRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limit(limiter.AllowNotification, principalKey, "notification rate limit exceeded")
}

func principalKey(c *gin.Context) (string, bool) {
	p, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		return "", false
	}
	return string(p.Role) + ":" + strconv.FormatUint(uint64(p.ID), 10), true
}

func limit(allow allowFunc, keyOf func(*gin.Context) (string, bool), message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := keyOf(c)
		if !ok {
			// No principal yet, the auth middleware rejects the request.
			c.Next()
			return
		}

		result, err := allow(c.Request.Context(), key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(message, "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
