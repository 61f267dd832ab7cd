package util

import (
	"context"
	"time"
)

// Retry runs fn until it returns nil, giving up after maxAttempts. The pause
// between attempts starts at baseDelay and doubles each round. A context
// cancelled during a backoff pause aborts with the context error; the last
// fn error is returned once attempts are exhausted.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseDelay << (attempt - 1)):
		}
	}

	return lastErr
}
