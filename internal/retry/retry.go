package retry

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

type Policy struct {
	Attempts int
	Backoff  func(attempt int) time.Duration
}

// Linear waits attempt*unit after the given failed attempt.
func Linear(unit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * unit
	}
}

func Quadratic(unit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt*attempt) * unit
	}
}

type Result[T any] struct {
	Value    T
	Err      error
	Attempts int
}

var errPermanent = errors.New("permanent failure")

// Permanent stops Do from retrying err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, errPermanent)
}

func Do[T any](ctx context.Context, policy Policy, operation func(ctx context.Context, attempt int) (T, error)) Result[T] {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var result Result[T]
	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempts = attempt
		value, err := operation(ctx, attempt)
		if err == nil {
			result.Value = value
			result.Err = nil
			return result
		}
		result.Err = err

		if errors.Is(err, errPermanent) || attempt == attempts {
			break
		}
		if err := wait(ctx, policy.backoff(attempt)); err != nil {
			result.Err = errors.Mark(result.Err, err)
			break
		}
	}

	return result
}

func (policy Policy) backoff(attempt int) time.Duration {
	if policy.Backoff == nil {
		return 0
	}
	return policy.Backoff(attempt)
}

func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sleep pauses for delay unless ctx ends first.
func Sleep(ctx context.Context, delay time.Duration) error {
	return wait(ctx, delay)
}
