/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/atomic"
)

// ErrWorkerUnitStopTimeoutExceeded is returned by WorkerUnit.Stop when the worker didn't finish in time.
var ErrWorkerUnitStopTimeoutExceeded = errors.New("worker unit stop timeout exceeded")

// WorkerUnitOpts contains optional parameters for constructing WorkerUnit.
type WorkerUnitOpts struct {
	MetricsRegisterer MetricsRegisterer
	// GracefulStopTimeout bounds waiting for the worker in Stop(true). Zero means no bound.
	GracefulStopTimeout time.Duration
}

// WorkerUnit presents Worker as Unit. Start runs the worker, Stop cancels its context.
type WorkerUnit struct {
	worker  Worker
	opts    WorkerUnitOpts
	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

var _ Unit = (*WorkerUnit)(nil)
var _ MetricsRegisterer = (*WorkerUnit)(nil)

// NewWorkerUnit creates a new WorkerUnit.
func NewWorkerUnit(worker Worker) *WorkerUnit {
	return NewWorkerUnitWithOpts(worker, WorkerUnitOpts{})
}

// NewWorkerUnitWithOpts is a more configurable version of NewWorkerUnit.
func NewWorkerUnitWithOpts(worker Worker, opts WorkerUnitOpts) *WorkerUnit {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerUnit{worker: worker, opts: opts, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Start runs the underlying worker. A worker error is reported as fatal.
func (u *WorkerUnit) Start(fatalErr chan<- error) {
	if !u.started.CompareAndSwap(false, true) {
		return
	}
	defer close(u.done)
	if err := u.worker.Run(u.ctx); err != nil {
		fatalErr <- err
	}
}

// Stop cancels the worker's context and, if gracefully, waits for the worker to return.
func (u *WorkerUnit) Stop(gracefully bool) error {
	u.cancel()
	if !gracefully || !u.started.Load() {
		return nil
	}
	if u.opts.GracefulStopTimeout == 0 {
		<-u.done
		return nil
	}
	timer := time.NewTimer(u.opts.GracefulStopTimeout)
	defer timer.Stop()
	select {
	case <-u.done:
		return nil
	case <-timer.C:
		return ErrWorkerUnitStopTimeoutExceeded
	}
}

// MustRegisterMetrics registers the metrics of the worker.
func (u *WorkerUnit) MustRegisterMetrics() {
	if u.opts.MetricsRegisterer != nil {
		u.opts.MetricsRegisterer.MustRegisterMetrics()
	}
}

// UnregisterMetrics unregisters the metrics of the worker.
func (u *WorkerUnit) UnregisterMetrics() {
	if u.opts.MetricsRegisterer != nil {
		u.opts.MetricsRegisterer.UnregisterMetrics()
	}
}
