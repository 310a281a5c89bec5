package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failing returns an operation that fails until it has been called n times.
func failing(n int, calls *int) func() error {
	return func() error {
		*calls++
		if *calls <= n {
			return errors.New("publish timeout")
		}
		return nil
	}
}

func TestRetryWithBackoff(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		maxAttempts int
		wantErr     bool
		wantCalls   int
	}{
		{name: "first call succeeds", failures: 0, maxAttempts: 3, wantCalls: 1},
		{name: "succeeds on last attempt", failures: 2, maxAttempts: 3, wantCalls: 3},
		{name: "all attempts fail", failures: 10, maxAttempts: 3, wantErr: true, wantCalls: 3},
		{name: "single attempt", failures: 1, maxAttempts: 1, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), failing(tt.failures, &calls), tt.maxAttempts, time.Millisecond)
			if tt.wantErr {
				assert.EqualError(t, err, "publish timeout")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	operation := func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("unavailable")
	}

	err := RetryWithBackoff(ctx, operation, 5, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoff_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	err := RetryWithBackoff(ctx, failing(0, &calls), 3, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestRetryWithBackoff_DelayDoubles(t *testing.T) {
	var times []time.Time
	operation := func() error {
		times = append(times, time.Now())
		return errors.New("throttled")
	}

	baseDelay := 20 * time.Millisecond
	_ = RetryWithBackoff(context.Background(), operation, 3, baseDelay)

	require.Len(t, times, 3)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), baseDelay)
	assert.GreaterOrEqual(t, times[2].Sub(times[1]), 2*baseDelay)
}
