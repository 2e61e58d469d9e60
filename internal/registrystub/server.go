/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package registrystub

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/service"
)

// Server runs the stub registry over HTTP.
// It implements service.Unit.
type Server struct {
	Registry        *Registry
	HTTPServer      *http.Server
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
	done     chan struct{}
}

var _ service.Unit = (*Server)(nil)

// NewServer creates a stub registry with its HTTP server.
func NewServer(cfg *Config, logger log.FieldLogger) (*Server, error) {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	registry, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Server{
		Registry: registry,
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           registry,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Logger:          logger,
		ShutdownTimeout: cfg.ShutdownTimeout,
		ready:           make(chan struct{}),
		done:            make(chan struct{}),
	}, nil
}

// Start listens on the configured address and serves requests in a blocking way.
// If a fatal error occurs, it will be sent to the fatalErr channel.
func (s *Server) Start(fatalErr chan<- error) {
	defer close(s.done)

	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))
	logger.Info("starting registry stub HTTP server...")

	listener, err := net.Listen("tcp", s.HTTPServer.Addr)
	if err != nil {
		logger.Error("registry stub HTTP server error", log.Error(err))
		close(s.ready)
		fatalErr <- err
		return
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	close(s.ready)

	logger.Info("registry stub HTTP server is listening", log.String("url", s.URL()))
	if err = s.HTTPServer.Serve(listener); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("registry stub HTTP server closed")
			return
		}
		logger.Error("registry stub HTTP server error", log.Error(err))
		fatalErr <- err
	}
}

// WaitReady blocks until the server either listens or fails to.
func (s *Server) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// URL returns the base URL of the server. It's empty until the server listens.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

// Stop stops the server (gracefully or not).
func (s *Server) Stop(gracefully bool) error {
	if !gracefully {
		s.Logger.Info("closing registry stub HTTP server...")
		if err := s.HTTPServer.Close(); err != nil {
			s.Logger.Error("registry stub HTTP server closing error", log.Error(err))
			return err
		}
		s.waitDone()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	s.Logger.Info("shutting down registry stub HTTP server...", log.Duration("timeout", s.ShutdownTimeout))
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		s.Logger.Error("registry stub HTTP server shutting down error", log.Error(err))
		return err
	}
	s.Logger.Info("registry stub HTTP server shut down")
	s.waitDone()
	return nil
}

func (s *Server) waitDone() {
	s.mu.Lock()
	started := s.listener != nil
	s.mu.Unlock()
	if started {
		<-s.done
	}
}
