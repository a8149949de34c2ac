package services

import (
	"context"
	"time"
)

// withRetries runs fn up to attempts times, sleeping base, 2*base,
// 4*base... between tries. It returns the last error once attempts are
// exhausted so callers can downgrade to a recorded failure instead of
// stalling.
func withRetries(ctx context.Context, attempts int, base time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := base
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
