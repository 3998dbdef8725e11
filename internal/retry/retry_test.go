package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newsroom-crawler/internal/retry"
)

var errTransient = errors.New("transient")

func fastConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := retry.Config{}.WithDefaults()

	assert.Equal(t, retry.DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, retry.DefaultInitialDelay, cfg.InitialDelay)
	assert.Equal(t, retry.DefaultMaxDelay, cfg.MaxDelay)
	assert.InDelta(t, retry.DefaultMultiplier, cfg.Multiplier, 0)

	custom := retry.Config{MaxAttempts: 5, InitialDelay: 4 * time.Second}.WithDefaults()
	assert.Equal(t, 5, custom.MaxAttempts)
	assert.Equal(t, 4*time.Second, custom.InitialDelay)
}

func TestDo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		failures     int
		retryable    func(error) bool
		wantCalls    int
		wantErr      error
		wantNotified int
	}{
		{name: "succeeds first time", failures: 0, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, wantCalls: 3, wantNotified: 2},
		{name: "exhausts attempts", failures: 10, wantCalls: 3, wantErr: retry.ErrMaxAttemptsExceeded, wantNotified: 2},
		{
			name:      "non-retryable stops immediately",
			failures:  10,
			retryable: func(error) bool { return false },
			wantCalls: 1,
			wantErr:   errTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := fastConfig()
			cfg.IsRetryable = tt.retryable
			notified := 0
			cfg.OnRetry = func(int, error, time.Duration) { notified++ }

			calls := 0
			err := retry.Do(context.Background(), cfg, func() error {
				calls++
				if calls <= tt.failures {
					return errTransient
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantNotified, notified)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, errTransient)
		})
	}
}

func TestDo_BackoffSchedule(t *testing.T) {
	t.Parallel()

	cfg := retry.Config{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
		MaxDelay:     3 * time.Millisecond,
		Multiplier:   2,
	}
	var waits []time.Duration
	cfg.OnRetry = func(_ int, _ error, wait time.Duration) { waits = append(waits, wait) }

	err := retry.Do(context.Background(), cfg, func() error { return errTransient })

	require.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}, waits)
}

func TestDo_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Do(ctx, fastConfig(), func() error { return errTransient })

	require.ErrorIs(t, err, retry.ErrContextCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}
