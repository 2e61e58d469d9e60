/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package submitter sends documents to the registry under throttle admission control.
//
// Submit is synchronous for the caller even when the Transport completes asynchronously:
// it acquires a throttle slot, hands the serialized document to the Transport,
// waits for exactly one result and releases the slot before returning the Outcome.
package submitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/throttle"
)

// Option configures a Submitter.
type Option func(*Submitter)

// WithLogger sets the logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(s *Submitter) {
		s.logger = logger
	}
}

// WithEncoder replaces the default JSON encoder.
func WithEncoder(enc Encoder) Option {
	return func(s *Submitter) {
		s.encoder = enc
	}
}

// WithRequestTimeout bounds the time between handing a request to the Transport and receiving its result.
// Zero (default) means the wait is bounded only by the caller's context.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Submitter) {
		s.requestTimeout = timeout
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The global one is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Submitter) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// WithRequestIDFunc replaces the request ID generator (xid by default).
func WithRequestIDFunc(fn func() string) Option {
	return func(s *Submitter) {
		s.newRequestID = fn
	}
}

// Submitter performs document submissions through a shared Throttle.
// It keeps no per-call state and is safe for concurrent use.
type Submitter struct {
	thr            *throttle.Throttle
	transport      Transport
	encoder        Encoder
	logger         log.FieldLogger
	tracer         trace.Tracer
	requestTimeout time.Duration
	newRequestID   func() string
}

// New creates a new Submitter.
func New(thr *throttle.Throttle, transport Transport, opts ...Option) (*Submitter, error) {
	if thr == nil {
		return nil, errors.New("throttle is required")
	}
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	s := &Submitter{
		thr:          thr,
		transport:    transport,
		encoder:      JSONEncoder,
		logger:       log.NewDisabledLogger(),
		tracer:       otel.GetTracerProvider().Tracer(tracerName),
		newRequestID: func() string { return xid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.requestTimeout < 0 {
		return nil, fmt.Errorf("request timeout must not be negative, got %s", s.requestTimeout)
	}
	return s, nil
}

// Submit sends doc with the given signature and waits for the result.
// Failures are reported in Outcome.Err and never panic. The throttle slot is always released
// before Submit returns.
func (s *Submitter) Submit(ctx context.Context, doc interface{}, signature string) (outcome Outcome) {
	reqID := s.newRequestID()
	logger := s.logger.With(log.String("request_id", reqID))

	ctx, span := startSubmitSpan(ctx, s.tracer, reqID)
	defer func() { endSubmitSpan(span, outcome) }()

	startTime := time.Now()
	if err := s.thr.Acquire(ctx); err != nil {
		logger.Warn("submission abandoned while waiting for throttle slot", log.Error(err))
		return Outcome{Err: err}
	}
	defer s.thr.Release()

	waited := time.Since(startTime)
	recordThrottleWait(span, waited)
	logger.Debug("throttle slot acquired", log.Duration("wait", waited))

	payload, err := s.encoder.Encode(doc)
	if err != nil {
		logger.Warn("document encoding failed", log.Error(err))
		return Outcome{Err: fmt.Errorf("encode document: %w", err)}
	}
	recordPayload(span, len(payload))

	callCtx := ctx
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	callStartTime := time.Now()
	p := newPromise(logger)
	s.transport.Send(callCtx, Request{ID: reqID, Payload: payload, Signature: signature}, p.resolve)
	res, ok := p.await(callCtx)
	callDuration := time.Since(callStartTime)

	switch {
	case !ok && ctx.Err() != nil:
		err = &AwaitInterruptedError{RequestID: reqID, Inner: ctx.Err()}
	case !ok:
		err = fmt.Errorf("%w after %s", ErrRequestTimeout, s.requestTimeout)
	default:
		err = res.err
	}
	if err != nil {
		logger.Warn("document submission failed",
			log.Error(err), log.Duration("call_duration", callDuration), log.Bool("signed", signature != ""))
		return Outcome{Err: err}
	}

	logger.Debug("document submitted",
		log.Int("status_code", res.resp.StatusCode), log.Duration("call_duration", callDuration))
	return Outcome{Response: res.resp}
}
