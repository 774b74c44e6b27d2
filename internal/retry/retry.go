// Package retry runs a unit of work again when it fails with a transient error.
package retry

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultMaxAttempts is used when Policy.MaxAttempts is not set.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is used when Policy.BaseDelay is not set.
	DefaultBaseDelay = 100 * time.Millisecond
)

// Policy controls how Do retries an operation.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts int

	// BaseDelay is multiplied by 2^attempt to get the wait after a failed attempt.
	// Attempts are numbered from 1, so the first wait is 2*BaseDelay.
	BaseDelay time.Duration

	// IsTransient decides whether an error is worth another attempt.
	// A nil IsTransient never retries.
	IsTransient func(error) bool

	// OnRetry is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Sleep waits for d or until ctx is done. Defaults to a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Delay returns the wait after the given failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return base * time.Duration(1<<attempt)
}

// Do calls op until it succeeds, fails with a non-transient error, or the
// attempts run out. The last error is returned unchanged so callers can
// inspect it with errors.Is and errors.As.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= maxAttempts || p.IsTransient == nil || !p.IsTransient(err) {
			return zero, err
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return zero, errors.Join(serr, err)
		}
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
