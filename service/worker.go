/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/acronis/go-crptapi/log"
)

// ErrPeriodicWorkerStop may be returned by the underlying worker to end PeriodicWorker's loop.
var ErrPeriodicWorkerStop = errors.New("stop periodic worker error")

// Worker performs some (usually long-running) work.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc is an adapter to allow the use of ordinary functions as Worker.
type WorkerFunc func(ctx context.Context) error

// Run is a part of Worker interface.
func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// PeriodicWorker runs the underlying worker with a delay between runs until ctx is done.
type PeriodicWorker struct {
	worker       Worker
	logger       log.FieldLogger
	initialDelay time.Duration
	interval     time.Duration
}

// PeriodicWorkerOpts contains optional parameters for constructing PeriodicWorker.
type PeriodicWorkerOpts struct {
	InitialDelay time.Duration
}

// NewPeriodicWorker creates a new PeriodicWorker.
func NewPeriodicWorker(worker Worker, interval time.Duration, logger log.FieldLogger) *PeriodicWorker {
	return NewPeriodicWorkerWithOpts(worker, interval, logger, PeriodicWorkerOpts{})
}

// NewPeriodicWorkerWithOpts is a more configurable version of NewPeriodicWorker.
func NewPeriodicWorkerWithOpts(
	worker Worker, interval time.Duration, logger log.FieldLogger, opts PeriodicWorkerOpts,
) *PeriodicWorker {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &PeriodicWorker{worker: worker, logger: logger, initialDelay: opts.InitialDelay, interval: interval}
}

// Run runs the loop. Errors of single runs are logged and don't stop it.
func (pw *PeriodicWorker) Run(ctx context.Context) (resErr error) {
	defer func() {
		if p := recover(); p != nil {
			const logStackSize = 8192
			stack := make([]byte, logStackSize)
			stack = stack[:runtime.Stack(stack, false)]
			pw.logger.Error(fmt.Sprintf("panic: %+v", p), log.Bytes("stack", stack))
			panic(p)
		}
		pw.logger.Debug("periodic worker stopped")
	}()

	timer := time.NewTimer(pw.initialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		if err := pw.worker.Run(ctx); err != nil {
			if errors.Is(err, ErrPeriodicWorkerStop) {
				return nil
			}
			pw.logger.Error("periodically running worker finished with error", log.Error(err))
		}
		timer.Reset(pw.interval)
	}
}

// ParallelWorker runs all its workers concurrently and waits for them.
// The first failure cancels the context passed to the rest.
type ParallelWorker struct {
	Workers []Worker
}

// NewParallelWorker creates a new ParallelWorker.
func NewParallelWorker(workers ...Worker) *ParallelWorker {
	return &ParallelWorker{Workers: workers}
}

// Run runs the workers and returns all their errors joined.
func (pw *ParallelWorker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make([]error, len(pw.Workers))
	var wg sync.WaitGroup
	wg.Add(len(pw.Workers))
	for i, w := range pw.Workers {
		i, w := i, w
		go func() {
			defer wg.Done()
			if errs[i] = w.Run(ctx); errs[i] != nil {
				cancel()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
