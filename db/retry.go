package db

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig controls WithRetry.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	// RetryOn decides whether err is worth another attempt. Nil retries on
	// ErrConnectionFailed, ErrDeadlock and ErrTimeout.
	RetryOn func(error) bool
}

// WithRetry runs fn until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. fn must be idempotent.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	retryOn := cfg.RetryOn
	if retryOn == nil {
		retryOn = func(err error) bool {
			return IsConnectionFailed(err) || IsDeadlock(err) || IsTimeout(err)
		}
	}
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryOn(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("jobboard/db: all %d attempts failed, last error: %w", attempts, lastErr)
}
