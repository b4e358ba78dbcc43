package retry

import (
	"context"
	"time"
)

// Backoff returns the delay before the next try. The first completed attempt
// is 1.
type Backoff func(attempt int) time.Duration

// Linear grows the delay by base on every attempt: base, 2*base, 3*base, ...
func Linear(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Do calls fn up to attempts times, sleeping backoff(attempt) between tries.
// It returns nil on the first success, the last error once attempts are
// exhausted, or the context error if ctx is done while waiting. Do never
// retries past attempts, so it always returns within bounded time.
func Do(ctx context.Context, attempts int, backoff Backoff, fn func(ctx context.Context) error) (err error) {
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	return err
}
