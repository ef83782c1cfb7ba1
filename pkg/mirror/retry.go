package mirror

import (
	"context"
	"errors"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff controls retries of transient failures.
type Backoff struct {
	Attempts int
	Delay    time.Duration // doubled after each failed attempt
}

// DefaultBackoff tries three times, waiting 1s then 2s.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. It reports how many attempts were made.
func (b Backoff) Retry(ctx context.Context, fn func() error) (int, error) {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := b.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return i + 1, nil
		} else if lastErr = err; !IsRetryable(err) {
			return i + 1, err
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return i + 1, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return attempts, lastErr
}
