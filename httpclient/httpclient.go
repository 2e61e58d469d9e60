/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package httpclient builds *http.Client instances from a chain of round trippers
// (logging, metrics, bearer auth, user agent, retries and request ID) configured by Config.
package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/acronis/go-crptapi/log"
)

// DefaultRequestType is used as a request type when neither Opts nor the request context provide one.
const DefaultRequestType = "default"

// Opts provides options for NewWithOpts and MustWithOpts functions.
type Opts struct {
	// UserAgent is a user agent string. The header isn't touched when empty.
	UserAgent string

	// RequestType is a type of request used in logs and metrics, e.g. "create-document".
	RequestType string

	// Delegate is the innermost RoundTripper. A clone of http.DefaultTransport is used by default.
	Delegate http.RoundTripper

	// Logger is used by logging and retryable round trippers.
	Logger log.FieldLogger

	// LoggerProvider is a function that provides a context-specific logger. Takes precedence over Logger.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// RequestIDProvider is a function that provides a request ID.
	RequestIDProvider func(ctx context.Context) string

	// Collector is a metrics collector. Used only when metrics are enabled in the Config.
	Collector MetricsCollector

	// AuthProvider adds "Authorization: Bearer" header when set.
	AuthProvider AuthProvider
}

// New creates an HTTP client using the given configuration.
func New(cfg *Config) (*http.Client, error) {
	return NewWithOpts(cfg, Opts{})
}

// Must creates an HTTP client using the given configuration and panics if any error occurs.
func Must(cfg *Config) *http.Client {
	client, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// NewWithOpts creates an HTTP client which transport is a chain of round trippers.
// From outermost to innermost: request ID, retries, user agent, auth, metrics, logging.
// The request ID is set once, so all retry attempts share it.
func NewWithOpts(cfg *Config, opts Opts) (*http.Client, error) {
	delegate := opts.Delegate
	if delegate == nil {
		delegate = http.DefaultTransport.(*http.Transport).Clone()
	}

	if cfg.Logger.Enabled {
		logOpts := cfg.Logger.TransportOpts()
		logOpts.LoggerProvider = opts.LoggerProvider
		logOpts.Logger = opts.Logger
		delegate = NewLoggingRoundTripperWithOpts(delegate, opts.RequestType, logOpts)
	}

	if cfg.Metrics.Enabled {
		delegate = NewMetricsRoundTripperWithOpts(delegate, MetricsRoundTripperOpts{
			RequestType: opts.RequestType,
			Collector:   opts.Collector,
		})
	}

	if opts.AuthProvider != nil {
		delegate = NewAuthBearerRoundTripper(delegate, opts.AuthProvider)
	}

	if opts.UserAgent != "" {
		delegate = NewUserAgentRoundTripper(delegate, opts.UserAgent)
	}

	if cfg.Retries.Enabled {
		retryOpts := cfg.Retries.TransportOpts()
		retryOpts.LoggerProvider = opts.LoggerProvider
		retryOpts.Logger = opts.Logger
		var err error
		if delegate, err = NewRetryableRoundTripperWithOpts(delegate, retryOpts); err != nil {
			return nil, fmt.Errorf("create retryable round tripper: %w", err)
		}
	}

	delegate = NewRequestIDRoundTripperWithOpts(delegate, RequestIDRoundTripperOpts{
		RequestIDProvider: opts.RequestIDProvider,
	})

	return &http.Client{Transport: delegate, Timeout: cfg.Timeout}, nil
}

// MustWithOpts creates an HTTP client with options and panics if any error occurs.
func MustWithOpts(cfg *Config, opts Opts) *http.Client {
	client, err := NewWithOpts(cfg, opts)
	if err != nil {
		panic(err)
	}
	return client
}
