package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting key patterns:
// - ratelimit:{principal}:streams - per-minute stream connects
// - ratelimit:{customer}:callwaiter - per-minute waiter calls
// - ratelimit:{staff}:notifications - per-minute staff broadcasts
// - ratelimit:{ip}:auth - per-minute login attempts

// RateLimitConfig contains configuration for rate limiting
type RateLimitConfig struct {
	StreamLimit        int
	StreamWindow       time.Duration
	CallWaiterLimit    int
	CallWaiterWindow   time.Duration
	NotificationLimit  int
	NotificationWindow time.Duration
	AuthLimit          int
	AuthWindow         time.Duration
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		StreamLimit:        30, // reconnect storms from one device
		StreamWindow:       60 * time.Second,
		CallWaiterLimit:    3,
		CallWaiterWindow:   60 * time.Second,
		NotificationLimit:  30,
		NotificationWindow: 60 * time.Second,
		AuthLimit:          5,
		AuthWindow:         60 * time.Second,
	}
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool          // Whether the action is allowed
	Remaining int           // Remaining actions in the window
	ResetIn   time.Duration // Time until the window resets
	Limit     int           // The limit for this action
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// AllowStream checks if a principal may open another stream
func (r *RateLimiter) AllowStream(ctx context.Context, principal string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:streams", principal)
	return r.checkLimit(ctx, key, r.config.StreamLimit, r.config.StreamWindow)
}

// AllowCallWaiter checks if a customer may call a waiter again
func (r *RateLimiter) AllowCallWaiter(ctx context.Context, principal string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:callwaiter", principal)
	return r.checkLimit(ctx, key, r.config.CallWaiterLimit, r.config.CallWaiterWindow)
}

// AllowNotification checks if a staff member may broadcast
func (r *RateLimiter) AllowNotification(ctx context.Context, principal string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:notifications", principal)
	return r.checkLimit(ctx, key, r.config.NotificationLimit, r.config.NotificationWindow)
}

// AllowAuth checks if an IP can make an auth attempt
func (r *RateLimiter) AllowAuth(ctx context.Context, ip string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:auth", ip)
	return r.checkLimit(ctx, key, r.config.AuthLimit, r.config.AuthWindow)
}

var limitScript = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		if ttl == window then
			redis.call('EXPIRE', key, window)
		end
		return {1, limit - current - 1, ttl}
	else
		return {0, 0, ttl}
	end
`)

// checkLimit performs a fixed window counter check atomically
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	result, err := limitScript.Run(ctx, r.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}

	allowed := resultSlice[0].(int64) == 1
	remaining := int(resultSlice[1].(int64))
	resetIn := time.Duration(resultSlice[2].(int64)) * time.Second

	return &RateLimitResult{
		Allowed:   allowed,
		Remaining: remaining,
		ResetIn:   resetIn,
		Limit:     limit,
	}, nil
}

// Reset resets the rate limit for a specific key (admin operation)
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
