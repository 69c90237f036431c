package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

var (
	// ErrRetryable marks a transient failure.
	ErrRetryable = &wserr.SessionError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: wserr.ExitGeneral,
	}

	// ErrRateLimited indicates the endpoint answered HTTP 429.
	ErrRateLimited = &wserr.SessionError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: wserr.ExitGeneral,
	}
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           // including the first attempt
	BaseDelay   time.Duration // delay before the first retry
	MaxDelay    time.Duration // cap for exponential growth
}

// DefaultRetryConfig is 3 attempts with 250ms, 500ms backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// RetryWithConfig runs operation until it succeeds, returns a non-retryable
// error, or attempts run out.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, err
		}

		if attempt < attempts-1 {
			timer := time.NewTimer(backoff(attempt, cfg.BaseDelay, cfg.MaxDelay))
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// backoff returns an exponentially growing delay with jitter in [d/2, d).
func backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	d := base * (1 << attempt)
	if d > maxDelay {
		d = maxDelay
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half) //nolint:gosec // G404: jitter does not need crypto randomness
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRetryable) || errors.Is(err, ErrRateLimited)
}

// WrapRetryable marks err as transient.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}

// ParseRetryAfter parses a Retry-After header given in seconds.
func ParseRetryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
