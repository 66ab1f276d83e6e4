package embedding

import (
	"context"
	"errors"
	"log"
	"time"
)

// errNoRetry wraps errors that must not trigger another attempt.
type noRetryError struct {
	err error
}

func (e *noRetryError) Error() string { return e.err.Error() }
func (e *noRetryError) Unwrap() error { return e.err }

// permanent marks err as non-retryable for retryWithBackoff.
func permanent(err error) error {
	return &noRetryError{err: err}
}

// retryWithBackoff runs operation up to maxAttempts times with exponential
// backoff (baseDelay doubling per attempt, capped at maxDelay). Errors marked
// permanent and context cancellation stop immediately. Returns the last error
// if every attempt fails.
func retryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay, maxDelay time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		var perm *noRetryError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if attempt == maxAttempts {
			break
		}

		delay := baseDelay << (attempt - 1)
		if delay > maxDelay {
			delay = maxDelay
		}
		log.Printf("[Embedding] Attempt %d/%d failed (%v), retrying in %s", attempt, maxAttempts, lastErr, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
