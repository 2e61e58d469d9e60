/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package profserver provides the debug HTTP server of crptsubmit: pprof handlers
// and, optionally, the Prometheus metrics of the throttle and the registry client.
package profserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/service"
)

// ProfServer serves /debug/pprof/* and /metrics.
// It implements service.Unit interface.
type ProfServer struct {
	URL            string
	HTTPServer     *http.Server
	httpServerDone chan struct{}
	Logger         log.FieldLogger
}

var _ service.Unit = (*ProfServer)(nil)

// New creates a new debug HTTP server. A nil gatherer disables the /metrics endpoint.
func New(cfg *Config, logger log.FieldLogger, gatherer prometheus.Gatherer) *ProfServer {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Mount("/debug", chimiddleware.Profiler())
	if gatherer != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: time.Second * 5,
	}
	return &ProfServer{
		URL:            "http://" + httpServer.Addr,
		HTTPServer:     httpServer,
		httpServerDone: make(chan struct{}),
		Logger:         logger,
	}
}

// Start serves requests in a blocking way.
// If a fatal error occurs, it's sent into passed fatalErr channel.
func (s *ProfServer) Start(fatalErr chan<- error) {
	defer close(s.httpServerDone)

	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))
	logger.Info("starting debug HTTP server...")
	if err := s.HTTPServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("debug HTTP server closed")
			return
		}
		logger.Error("debug HTTP server error", log.Error(err))
		fatalErr <- err
	}
}

// Stop closes the server. There is nothing to finish gracefully, so gracefully is ignored.
func (s *ProfServer) Stop(bool) error {
	s.Logger.Info("closing debug HTTP server...")
	if err := s.HTTPServer.Close(); err != nil {
		s.Logger.Error("debug HTTP server closing error", log.Error(err))
		return err
	}
	<-s.httpServerDone
	return nil
}
