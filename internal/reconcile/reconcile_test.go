package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRebuilder struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (c *countingRebuilder) RecomputeAll(ctx context.Context) (int, error) {
	c.calls.Add(1)
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
		}
	}
	return 3, c.err
}

type countingPurger struct {
	calls atomic.Int32
}

func (c *countingPurger) PurgeExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 2, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New("every now and then", &countingRebuilder{}, &countingPurger{}, discardLogger())
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	t.Run("RunsBothJobs", func(t *testing.T) {
		rebuilder, purger := &countingRebuilder{}, &countingPurger{}
		r, err := New("@every 1h", rebuilder, purger, discardLogger())
		require.NoError(t, err)

		r.RunOnce(context.Background())

		assert.EqualValues(t, 1, rebuilder.calls.Load())
		assert.EqualValues(t, 1, purger.calls.Load())
	})

	t.Run("PurgeRunsAfterRecomputeFailure", func(t *testing.T) {
		rebuilder, purger := &countingRebuilder{err: errors.New("db down")}, &countingPurger{}
		r, err := New("@every 1h", rebuilder, purger, discardLogger())
		require.NoError(t, err)

		r.RunOnce(context.Background())

		assert.EqualValues(t, 1, purger.calls.Load())
	})

	t.Run("NilJobs", func(t *testing.T) {
		r, err := New("@every 1h", nil, nil, discardLogger())
		require.NoError(t, err)
		assert.NotPanics(t, func() { r.RunOnce(context.Background()) })
	})
}

func TestSchedule(t *testing.T) {
	rebuilder := &countingRebuilder{}
	r, err := New("@every 1s", rebuilder, &countingPurger{}, discardLogger())
	require.NoError(t, err)

	r.Start()
	assert.Eventually(t, func() bool { return rebuilder.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
}

func TestSkipIfStillRunning(t *testing.T) {
	rebuilder := &countingRebuilder{block: make(chan struct{})}
	r, err := New("@every 1s", rebuilder, &countingPurger{}, discardLogger())
	require.NoError(t, err)

	r.Start()
	require.Eventually(t, func() bool { return rebuilder.calls.Load() == 1 }, 5*time.Second, 50*time.Millisecond)

	// Several ticks pass while the first run is blocked.
	time.Sleep(2500 * time.Millisecond)
	assert.EqualValues(t, 1, rebuilder.calls.Load())

	close(rebuilder.block)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
}
