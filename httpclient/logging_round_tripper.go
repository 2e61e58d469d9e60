/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/acronis/go-crptapi/log"
)

// LoggingMode represents a mode of logging.
type LoggingMode string

// Logging modes.
const (
	LoggingModeNone   LoggingMode = "none"
	LoggingModeAll    LoggingMode = "all"
	LoggingModeFailed LoggingMode = "failed"
)

// IsValid checks if the logger mode is valid.
func (lm LoggingMode) IsValid() bool {
	switch lm {
	case LoggingModeNone, LoggingModeAll, LoggingModeFailed:
		return true
	}
	return false
}

// LoggingRoundTripper implements http.RoundTripper for logging requests.
type LoggingRoundTripper struct {
	// Delegate is the next RoundTripper in the chain.
	Delegate http.RoundTripper

	// ReqType is a type of request, e.g. "create-document".
	// GetRequestTypeFromContext takes precedence when set.
	ReqType string

	Opts LoggingRoundTripperOpts
}

// LoggingRoundTripperOpts represents an options for LoggingRoundTripper.
type LoggingRoundTripperOpts struct {
	// LoggerProvider is a function that provides a context-specific logger.
	// When nil, Logger is used.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// Logger is used when LoggerProvider is nil. Logging is disabled if both are nil.
	Logger log.FieldLogger

	// Mode of logging: none, all, failed. Default is all.
	Mode LoggingMode

	// SlowRequestThreshold is a threshold after which the request is logged at warn level.
	SlowRequestThreshold time.Duration
}

// NewLoggingRoundTripper creates an HTTP transport that log requests.
func NewLoggingRoundTripper(delegate http.RoundTripper, reqType string, logger log.FieldLogger) http.RoundTripper {
	return NewLoggingRoundTripperWithOpts(delegate, reqType, LoggingRoundTripperOpts{Logger: logger})
}

// NewLoggingRoundTripperWithOpts creates an HTTP transport that log requests with options.
func NewLoggingRoundTripperWithOpts(
	delegate http.RoundTripper, reqType string, opts LoggingRoundTripperOpts,
) http.RoundTripper {
	if opts.Mode == "" {
		opts.Mode = LoggingModeAll
	}
	return &LoggingRoundTripper{Delegate: delegate, ReqType: reqType, Opts: opts}
}

func (rt *LoggingRoundTripper) getLogger(ctx context.Context) log.FieldLogger {
	if rt.Opts.LoggerProvider != nil {
		return rt.Opts.LoggerProvider(ctx)
	}
	return rt.Opts.Logger
}

// RoundTrip adds logging capabilities to the HTTP transport.
func (rt *LoggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Opts.Mode == LoggingModeNone {
		return rt.Delegate.RoundTrip(r)
	}
	logger := rt.getLogger(r.Context())
	if logger == nil {
		return rt.Delegate.RoundTrip(r)
	}

	start := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	elapsed := time.Since(start)

	failed := err != nil || (resp != nil && resp.StatusCode >= http.StatusBadRequest)
	if rt.Opts.Mode == LoggingModeFailed && !failed {
		return resp, err
	}

	reqType := GetRequestTypeFromContext(r.Context())
	if reqType == "" {
		reqType = rt.ReqType
	}
	fields := []log.Field{
		log.String("method", r.Method),
		log.String("url", r.URL.String()),
		log.String("request_type", reqType),
		log.String("request_id", r.Header.Get(RequestIDHeader)),
		log.DurationIn(elapsed, time.Millisecond),
	}
	if resp != nil {
		fields = append(fields, log.Int("status_code", resp.StatusCode))
	}

	switch {
	case err != nil:
		logger.Error("client http request failed", append(fields, log.Error(err))...)
	case rt.Opts.SlowRequestThreshold > 0 && elapsed >= rt.Opts.SlowRequestThreshold:
		logger.Warn("slow client http request", fields...)
	default:
		logger.Info("client http request done", fields...)
	}
	return resp, err
}
