/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acronis/go-crptapi/log"
)

// Opts represents options for Service.
type Opts struct {
	ShutdownSignals []os.Signal
}

// Service starts a unit and stops it gracefully when an OS signal is received or the context is canceled.
// A unit whose Start returns without a fatal error (e.g. a finished submission batch) ends the service too.
type Service struct {
	Unit    Unit
	Signals chan os.Signal
	Logger  log.FieldLogger
	Opts    Opts
}

// New creates a new Service stopped by SIGINT and SIGTERM.
func New(logger log.FieldLogger, unit Unit) *Service {
	return NewWithOpts(logger, unit, Opts{ShutdownSignals: []os.Signal{syscall.SIGINT, syscall.SIGTERM}})
}

// NewWithOpts is a more configurable version of New.
func NewWithOpts(logger log.FieldLogger, unit Unit, opts Opts) *Service {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Service{Unit: unit, Signals: make(chan os.Signal, 1), Logger: logger, Opts: opts}
}

// Start wraps StartContext using the background context.
func (s *Service) Start() error {
	return s.StartContext(context.Background())
}

// StartContext runs the unit in a separate goroutine and blocks until it finishes, fails,
// ctx is done or a shutdown signal is received.
func (s *Service) StartContext(ctx context.Context) error {
	if mr, ok := s.Unit.(MetricsRegisterer); ok {
		mr.MustRegisterMetrics()
		defer mr.UnregisterMetrics()
	}

	fatalErr := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		s.Unit.Start(fatalErr)
	}()

	if len(s.Opts.ShutdownSignals) != 0 {
		signal.Notify(s.Signals, s.Opts.ShutdownSignals...)
		defer signal.Stop(s.Signals)
	}

	select {
	case err := <-fatalErr:
		return s.fail(err)
	case <-finished:
		select {
		case err := <-fatalErr:
			return s.fail(err)
		default:
		}
		s.Logger.Info("service unit finished")
		return nil
	case <-ctx.Done():
		s.Logger.Info("context is canceled, service will be stopped")
	case sig := <-s.Signals:
		s.Logger.Info("service got signal", log.String("signal", sig.String()))
	}

	if err := s.Unit.Stop(true); err != nil {
		return fmt.Errorf("stop service gracefully: %w", err)
	}
	return nil
}

func (s *Service) fail(err error) error {
	s.Logger.Error("service fatal error", log.Error(err))
	return fmt.Errorf("fatal error: %w", err)
}
