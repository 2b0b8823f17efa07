package xray

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"syscall"
	"time"
)

// RetryConfig configures how Start retries a port that is in use.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig covers another test binary briefly holding the port.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// NoRetry makes Start fail on the first bind error.
func NoRetry() *RetryConfig {
	return &RetryConfig{MaxAttempts: 1}
}

// withRetry runs op until it succeeds, fails with a non-retryable error or
// runs out of attempts.
func withRetry(ctx context.Context, config *RetryConfig, op func(ctx context.Context) error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= config.MaxAttempts || !isRetryable(err) {
			break
		}

		timer := time.NewTimer(config.calculateDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// calculateDelay is initial * factor^(attempt-1), capped, plus up to 10% jitter.
func (c *RetryConfig) calculateDelay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	if c.JitterEnabled {
		delay += rand.Float64() * 0.1 * delay
	}
	return time.Duration(delay)
}

func isRetryable(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
