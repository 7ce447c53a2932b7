// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginWindow = 15 * time.Minute

type RateLimiter struct {
	client      *redis.Client
	maxAttempts int64
}

// NewRateLimiter allows maxAttempts logins per mobile per 15 minutes. A
// non-positive maxAttempts defaults to 5.
func NewRateLimiter(client *redis.Client, maxAttempts int64) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &RateLimiter{client: client, maxAttempts: maxAttempts}
}

// CheckLoginAttempt records an attempt and reports whether it is allowed
func (r *RateLimiter) CheckLoginAttempt(ctx context.Context, mobile string) (bool, int64, error) {
	key := r.loginKey(mobile)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment login attempt: %w", err)
	}

	// Set expiration on first attempt
	if count == 1 {
		if err := r.client.Expire(ctx, key, loginWindow).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set login attempt window: %w", err)
		}
	}

	remaining := r.maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= r.maxAttempts, remaining, nil
}

// GetRemainingAttempts returns remaining login attempts
func (r *RateLimiter) GetRemainingAttempts(ctx context.Context, mobile string) (int64, error) {
	count, err := r.client.Get(ctx, r.loginKey(mobile)).Int64()
	if err == redis.Nil {
		return r.maxAttempts, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get login attempts: %w", err)
	}

	remaining := r.maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

// ResetLoginAttempts resets the login attempt counter
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, mobile string) error {
	return r.client.Del(ctx, r.loginKey(mobile)).Err()
}

func (r *RateLimiter) loginKey(mobile string) string {
	return fmt.Sprintf("ratelimit:login:%s", mobile)
}
