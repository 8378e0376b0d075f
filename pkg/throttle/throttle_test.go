package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/logging"
)

func TestThrottle_MaybeWait(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled throttle never probes", func(t *testing.T) {
		probes := 0
		thr := New(func(context.Context, string) (int64, error) {
			probes++
			return 0, nil
		}, 0, time.Millisecond, logging.NewNop())

		require.NoError(t, thr.MaybeWait(ctx, "jobs"))
		assert.Equal(t, 0, probes)
	})

	t.Run("passes when backlog is under the ceiling", func(t *testing.T) {
		thr := New(func(context.Context, string) (int64, error) {
			return 99, nil
		}, 100, time.Millisecond, logging.NewNop())

		require.NoError(t, thr.MaybeWait(ctx, "jobs"))
	})

	t.Run("waits until the backlog drains", func(t *testing.T) {
		readings := []int64{500, 500, 10}
		probes := 0
		thr := New(func(context.Context, string) (int64, error) {
			reading := readings[probes]
			probes++
			return reading, nil
		}, 100, time.Millisecond, logging.NewNop())

		require.NoError(t, thr.MaybeWait(ctx, "jobs"))
		assert.Equal(t, 3, probes)
	})

	t.Run("probe failure opens the gate", func(t *testing.T) {
		thr := New(func(context.Context, string) (int64, error) {
			return 0, errors.New("broker metadata unavailable")
		}, 100, time.Millisecond, logging.NewNop())

		require.NoError(t, thr.MaybeWait(ctx, "jobs"))
	})

	t.Run("context cancellation interrupts the wait", func(t *testing.T) {
		thr := New(func(context.Context, string) (int64, error) {
			return 500, nil
		}, 100, time.Hour, logging.NewNop())

		cancelCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- thr.MaybeWait(cancelCtx, "jobs")
		}()
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("MaybeWait did not return after cancellation")
		}
	})
}
