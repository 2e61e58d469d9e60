/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-crptapi/log/logtest"
)

func TestPeriodicWorker_Run(t *testing.T) {
	t.Run("run and stop by context timeout", func(t *testing.T) {
		var c atomic.Int32
		pw := NewPeriodicWorker(WorkerFunc(func(ctx context.Context) error {
			c.Inc()
			return nil
		}), 50*time.Millisecond, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 275*time.Millisecond)
		defer cancel()
		require.NoError(t, pw.Run(ctx))
		require.GreaterOrEqual(t, c.Load(), int32(3))
		require.LessOrEqual(t, c.Load(), int32(6))
	})

	t.Run("run and stop by error", func(t *testing.T) {
		var c atomic.Int32
		pw := NewPeriodicWorker(WorkerFunc(func(ctx context.Context) error {
			if c.Inc() == 2 {
				return ErrPeriodicWorkerStop
			}
			return nil
		}), 10*time.Millisecond, nil)
		require.NoError(t, pw.Run(context.Background()))
		require.EqualValues(t, 2, c.Load())
	})

	t.Run("errors of single runs are logged", func(t *testing.T) {
		logRecorder := logtest.NewRecorder()
		var c atomic.Int32
		pw := NewPeriodicWorkerWithOpts(WorkerFunc(func(ctx context.Context) error {
			switch c.Inc() {
			case 1:
				return errors.New("stats are unavailable")
			case 3:
				return ErrPeriodicWorkerStop
			}
			return nil
		}), 10*time.Millisecond, logRecorder, PeriodicWorkerOpts{InitialDelay: 20 * time.Millisecond})
		require.NoError(t, pw.Run(context.Background()))
		require.EqualValues(t, 3, c.Load())
		_, found := logRecorder.FindEntry("periodically running worker finished with error")
		require.True(t, found)
	})
}

func TestParallelWorker_Run(t *testing.T) {
	t.Run("all workers succeed", func(t *testing.T) {
		var c, cur, peak atomic.Int32
		worker := WorkerFunc(func(ctx context.Context) error {
			n := cur.Inc()
			for p := peak.Load(); n > p && !peak.CompareAndSwap(p, n); p = peak.Load() {
			}
			time.Sleep(50 * time.Millisecond)
			cur.Dec()
			c.Inc()
			return nil
		})
		require.NoError(t, NewParallelWorker(worker, worker, worker, worker).Run(context.Background()))
		require.EqualValues(t, 4, c.Load())
		require.EqualValues(t, 4, peak.Load())
	})

	t.Run("failure cancels the rest", func(t *testing.T) {
		sendErr := errors.New("registry is unavailable")
		failing := WorkerFunc(func(ctx context.Context) error {
			return sendErr
		})
		waiting := WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		err := NewParallelWorker(waiting, failing, waiting).Run(context.Background())
		require.ErrorIs(t, err, sendErr)
		require.ErrorIs(t, err, context.Canceled)
	})
}
