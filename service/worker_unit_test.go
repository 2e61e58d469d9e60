/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestWorkerUnit_Start_Stop(t *testing.T) {
	t.Run("stop not gracefully", func(t *testing.T) {
		var c atomic.Int32
		unit := NewWorkerUnit(NewPeriodicWorker(WorkerFunc(func(ctx context.Context) error {
			c.Inc()
			return nil
		}), 10*time.Millisecond, nil))

		fatalErr := make(chan error, 1)
		startDone := make(chan struct{})
		go func() {
			defer close(startDone)
			unit.Start(fatalErr)
		}()
		require.Eventually(t, func() bool { return c.Load() >= 3 }, 3*time.Second, 5*time.Millisecond)
		require.NoError(t, unit.Stop(false))
		<-startDone
		require.Empty(t, fatalErr)
	})

	t.Run("stop gracefully with timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		unit := NewWorkerUnitWithOpts(WorkerFunc(func(ctx context.Context) error {
			<-release
			return nil
		}), WorkerUnitOpts{GracefulStopTimeout: 100 * time.Millisecond})

		go unit.Start(make(chan error, 1))
		require.Eventually(t, unit.started.Load, time.Second, 5*time.Millisecond)
		require.ErrorIs(t, unit.Stop(true), ErrWorkerUnitStopTimeoutExceeded)
	})

	t.Run("stop gracefully waits for the worker", func(t *testing.T) {
		var finished atomic.Bool
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
			return nil
		}))
		go unit.Start(make(chan error, 1))
		require.Eventually(t, unit.started.Load, time.Second, 5*time.Millisecond)
		require.NoError(t, unit.Stop(true))
		require.True(t, finished.Load())
	})

	t.Run("stop before start", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error { return nil }))
		require.NoError(t, unit.Stop(true))
	})
}
