package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	var waits []time.Duration
	policy := Policy{Attempts: 3, Backoff: func(attempt int) time.Duration {
		waits = append(waits, Linear(time.Millisecond)(attempt))
		return Linear(time.Millisecond)(attempt)
	}}

	result := Do(context.Background(), policy, func(ctx context.Context, attempt int) (string, error) {
		if attempt < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, "ok", result.Value)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestDoReturnsLastError(t *testing.T) {
	calls := 0
	result := Do(context.Background(), Policy{Attempts: 3}, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errors.Newf("attempt %d", attempt)
	})

	require.Error(t, result.Err)
	assert.Equal(t, "attempt 3", result.Err.Error())
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, result.Attempts)
}

func TestDoStopsOnPermanent(t *testing.T) {
	sentinel := errors.New("not found")
	result := Do(context.Background(), Policy{Attempts: 5}, func(ctx context.Context, attempt int) (int, error) {
		return 0, Permanent(sentinel)
	})

	assert.Equal(t, 1, result.Attempts)
	assert.True(t, errors.Is(result.Err, sentinel))
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	result := Do(ctx, Policy{Attempts: 3, Backoff: Linear(time.Hour)}, func(ctx context.Context, attempt int) (int, error) {
		cancel()
		return 0, errors.New("boom")
	})

	assert.Equal(t, 1, result.Attempts)
	assert.True(t, errors.Is(result.Err, context.Canceled))
}

func TestLinearAndQuadratic(t *testing.T) {
	assert.Equal(t, 3*time.Second, Linear(time.Second)(3))
	assert.Equal(t, 9*250*time.Millisecond, Quadratic(250*time.Millisecond)(3))
}
