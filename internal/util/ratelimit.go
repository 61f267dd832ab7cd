package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces calls to an upstream API with a token bucket. Tokens
// refill continuously at the configured per-minute rate, up to the bucket
// capacity.
type RateLimiter struct {
	mu       sync.Mutex
	rate     float64 // tokens per second
	capacity float64
	tokens   float64
	lastFill time.Time
}

// NewRateLimiter returns a limiter allowing perMinute calls per minute with
// no burst headroom: callers proceed one at a time once the bucket drains.
func NewRateLimiter(perMinute int) *RateLimiter {
	return NewBurstRateLimiter(perMinute, 1)
}

// NewBurstRateLimiter returns a limiter allowing perMinute calls per minute,
// with up to burst calls passing back to back after an idle period.
func NewBurstRateLimiter(perMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rate:     float64(perMinute) / 60.0,
		capacity: float64(burst),
		tokens:   float64(burst),
		lastFill: time.Now(),
	}
}

// take refills the bucket for the elapsed time and consumes one token if any
// is available.
func (rl *RateLimiter) take() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.tokens += now.Sub(rl.lastFill).Seconds() * rl.rate
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastFill = now

	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}

// Wait blocks until a token is available or the context is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.take() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
