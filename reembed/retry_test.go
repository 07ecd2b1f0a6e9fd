package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/minutes/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failing returns an operation that fails the first n calls with err.
func failing(n int, err error, attempts *int) func(context.Context) error {
	return func(context.Context) error {
		*attempts++
		if *attempts <= n {
			return err
		}
		return nil
	}
}

func TestRetryWithBackoff(t *testing.T) {
	transient := errors.New("connection reset")
	invalid := fmt.Errorf("%w: position 3", core.ErrInvalidUtterance)

	tests := []struct {
		name         string
		failures     int
		err          error
		maxAttempts  int
		wantErr      error
		wantAttempts int
	}{
		{"first try", 0, nil, 3, nil, 1},
		{"eventual success", 2, transient, 5, nil, 3},
		{"all attempts fail", 10, transient, 3, transient, 3},
		{"validation failure is not retried", 10, invalid, 5, core.ErrInvalidUtterance, 1},
		{"zero max attempts", 10, transient, 0, ErrInvalidMaxAttempts, 0},
		{"negative max attempts", 10, transient, -1, ErrInvalidMaxAttempts, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := RetryWithBackoff(context.Background(), failing(tt.failures, tt.err, &attempts), tt.maxAttempts, time.Millisecond)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	operation := func(context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	err := RetryWithBackoff(ctx, operation, 10, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts, "should stop when context is canceled")
}

func TestRetryWithBackoff_ExponentialBackoff(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	last := time.Now()

	operation := func(context.Context) error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(last))
		}
		last = time.Now()
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	}

	require.NoError(t, RetryWithBackoff(context.Background(), operation, 5, 10*time.Millisecond))
	require.Len(t, delays, 3)

	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}
