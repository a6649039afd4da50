package http

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// Name identifies the operation in per-attempt log lines.
	Name string

	// Logger receives a progress record per attempt. Optional.
	Logger Logger
}

// DefaultRetryConfig returns the retry configuration for generic API calls:
// 4 retries (5 total attempts) with a doubling schedule of 2s, 4s, 8s, 16s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     4,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     32 * time.Second,
		Multiplier:     2.0,
	}
}

// InferenceRetryConfig returns the reduced budget used for the inference
// call: 3 retries on the same schedule. That call is the most expensive
// and is already deadline-bounded per attempt, so it gets fewer repeats.
func InferenceRetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxRetries = 3
	return cfg
}

// NextDelay computes the wait before the retry following a failed attempt.
// attempt is zero-based (the attempt that just failed). A rate-limit error
// carrying a server hint overrides the exponential schedule for exactly
// this one wait; otherwise the delay is initial * multiplier^attempt,
// capped at MaxBackoff.
func NextDelay(attempt int, lastErr error, config RetryConfig) time.Duration {
	var httpErr *Error
	if errors.As(lastErr, &httpErr) && httpErr.Retryable && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	backoff := float64(config.InitialBackoff) * math.Pow(config.Multiplier, float64(attempt))
	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	return time.Duration(backoff)
}

// ShouldRetry determines if an error is retryable.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}

	// Generic errors are not retryable
	return false
}

// Operation is a function that can be retried.
type Operation func(ctx context.Context) error

// RetryWithBackoff executes an operation with exponential backoff retry
// logic. The operation runs at most MaxRetries+1 times. A non-retryable
// error aborts immediately; on exhaustion the last observed error is
// returned unchanged so the original cause survives.
func RetryWithBackoff(ctx context.Context, operation Operation, config RetryConfig) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if !ShouldRetry(err) {
			return err
		}

		if attempt >= config.MaxRetries {
			return err
		}

		delay := NextDelay(attempt, err, config)
		logAttempt(ctx, config, attempt, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

func logAttempt(ctx context.Context, config RetryConfig, attempt int, delay time.Duration, err error) {
	if config.Logger == nil {
		return
	}
	config.Logger.LogRetry(ctx, RetryLog{
		Operation: config.Name,
		Attempt:   attempt + 1,
		Delay:     delay,
		Err:       err,
	})
}
