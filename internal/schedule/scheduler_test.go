package schedule_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newsroom-crawler/internal/orchestrator"
	"github.com/jonesrussell/newsroom-crawler/internal/schedule"
)

// blockingRunner runs until release is closed.
type blockingRunner struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (r *blockingRunner) Run(ctx context.Context) (orchestrator.Summary, error) {
	r.calls.Add(1)
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return orchestrator.Summary{}, ctx.Err()
		}
	}
	return orchestrator.Summary{RunID: "run"}, r.err
}

func TestTrigger_RejectsOverlap(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{release: make(chan struct{})}
	s := schedule.New(runner, nil)

	require.NoError(t, s.Trigger(context.Background()))
	assert.True(t, s.Busy())
	require.ErrorIs(t, s.Trigger(context.Background()), orchestrator.ErrRunInProgress)

	close(runner.release)
	s.Stop()

	assert.False(t, s.Busy())
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestTrigger_FailedRunFreesScheduler(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{err: errors.New("boom")}
	s := schedule.New(runner, nil)

	require.NoError(t, s.Trigger(context.Background()))
	require.Eventually(t, func() bool { return !s.Busy() }, time.Second, time.Millisecond)
	require.NoError(t, s.Trigger(context.Background()))
	s.Stop()

	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	s := schedule.New(&blockingRunner{}, nil)

	require.NoError(t, s.Schedule("0 6 * * *"))
	require.NoError(t, s.Schedule("@daily"))
	require.Error(t, s.Schedule("not a schedule"))
	assert.Equal(t, 2, s.Entries())

	s.Start(context.Background())
	s.Stop()
}
