/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/retry"
)

// Default parameter values for RetryableRoundTripper.
const (
	DefaultMaxRetryAttempts                  = 3
	DefaultExponentialBackoffInitialInterval = time.Second
	DefaultExponentialBackoffMultiplier      = 2
)

// UnlimitedRetryAttempts should be used as RetryableRoundTripperOpts.MaxRetryAttempts value
// when we want to stop retries only by RetryableRoundTripperOpts.BackoffPolicy.
const UnlimitedRetryAttempts = -1

// RetryAttemptNumberHeader is an HTTP header name that will contain the serial number of the retry attempt.
const RetryAttemptNumberHeader = "X-Retry-Attempt"

// CheckRetryFunc is a function that is called right after RoundTrip() method
// and determines if the next retry attempt is needed.
type CheckRetryFunc func(
	ctx context.Context, req *http.Request, resp *http.Response, roundTripErr error, doneRetryAttempts int,
) (bool, error)

// RetryableRoundTripper wraps an object that implements http.RoundTripper interface
// and provides a retrying mechanism for HTTP requests.
type RetryableRoundTripper struct {
	Delegate http.RoundTripper
	Opts     RetryableRoundTripperOpts
}

// RetryableRoundTripperOpts represents an options for RetryableRoundTripper.
type RetryableRoundTripperOpts struct {
	// LoggerProvider is a function that provides a context-specific logger.
	// When nil, Logger is used.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// Logger is used when LoggerProvider is nil. Disabled logger by default.
	Logger log.FieldLogger

	// MaxRetryAttempts determines how many maximum retry attempts can be done.
	// The total number of sent requests may be MaxRetryAttempts + 1.
	// UnlimitedRetryAttempts means the retries are stopped only by BackoffPolicy.
	MaxRetryAttempts int

	// CheckRetryFunc is DefaultCheckRetry by default.
	CheckRetryFunc CheckRetryFunc

	// IgnoreRetryAfter disables parsing of the Retry-After response header.
	IgnoreRetryAfter bool

	// BackoffPolicy computes wait time before the next attempt when Retry-After is absent or ignored.
	// DefaultBackoffPolicy is used by default.
	BackoffPolicy retry.Policy
}

// NewRetryableRoundTripper returns a new instance of RetryableRoundTripper.
func NewRetryableRoundTripper(delegate http.RoundTripper) (*RetryableRoundTripper, error) {
	return NewRetryableRoundTripperWithOpts(delegate, RetryableRoundTripperOpts{})
}

// NewRetryableRoundTripperWithOpts creates a new instance of RetryableRoundTripper with specified options.
func NewRetryableRoundTripperWithOpts(
	delegate http.RoundTripper, opts RetryableRoundTripperOpts,
) (*RetryableRoundTripper, error) {
	if opts.MaxRetryAttempts < 0 && opts.MaxRetryAttempts != UnlimitedRetryAttempts {
		return nil, fmt.Errorf("incorrect max retry attempts %d", opts.MaxRetryAttempts)
	}
	if opts.MaxRetryAttempts == 0 {
		opts.MaxRetryAttempts = DefaultMaxRetryAttempts
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.CheckRetryFunc == nil {
		opts.CheckRetryFunc = DefaultCheckRetry
	}
	if opts.BackoffPolicy == nil {
		opts.BackoffPolicy = DefaultBackoffPolicy
	}
	return &RetryableRoundTripper{Delegate: delegate, Opts: opts}, nil
}

// RoundTrip performs request with retry logic.
func (rt *RetryableRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	logger := rt.logger(ctx)

	originalBody := req.Body
	if originalBody != nil {
		defer func() { _ = originalBody.Close() }() // Per RoundTripper contract.
	}

	req = req.Clone(ctx) // Per RoundTripper contract.
	rewindBody, err := makeRequestBodyRewindable(req)
	if err != nil {
		return nil, &RetryableRoundTripperError{Inner: err}
	}

	nextWaitTime := rt.makeNextWaitTimeProvider()

	var resp *http.Response
	var roundTripErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if resp != nil && roundTripErr == nil {
				drainResponseBody(resp, logger)
			}
			if rewindErr := rewindBody(req); rewindErr != nil {
				logger.Error("failed to rewind request body between retry attempts",
					log.Int("requests_done", attempt), log.Error(rewindErr))
				return resp, roundTripErr
			}
			req.Header.Set(RetryAttemptNumberHeader, strconv.Itoa(attempt))
		}

		resp, roundTripErr = rt.Delegate.RoundTrip(req)

		needRetry, checkErr := rt.Opts.CheckRetryFunc(ctx, req, resp, roundTripErr, attempt)
		if checkErr != nil {
			logger.Error("failed to check if retry is needed",
				log.Int("requests_done", attempt+1), log.Error(checkErr))
			return resp, roundTripErr
		}
		if !needRetry {
			return resp, roundTripErr
		}

		if rt.Opts.MaxRetryAttempts > 0 && attempt >= rt.Opts.MaxRetryAttempts {
			logger.Warn("max retry attempts exceeded",
				log.Int("max_retry_attempts", rt.Opts.MaxRetryAttempts), log.Int("requests_done", attempt+1))
			return resp, roundTripErr
		}
		waitTime, stop := nextWaitTime(resp)
		if stop {
			return resp, roundTripErr
		}

		logger.Debug("request will be retried",
			log.String("url", req.URL.String()), log.Int("attempt", attempt+1), log.Duration("wait", waitTime))

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn("context done while waiting for the next retry attempt",
				log.Int("requests_done", attempt+1), log.Error(ctx.Err()))
			return resp, roundTripErr
		case <-timer.C:
		}
	}
}

type waitTimeProvider func(resp *http.Response) (waitTime time.Duration, stop bool)

func (rt *RetryableRoundTripper) makeNextWaitTimeProvider() waitTimeProvider {
	bf := rt.Opts.BackoffPolicy.NewBackOff()
	return func(resp *http.Response) (time.Duration, bool) {
		if resp != nil && !rt.Opts.IgnoreRetryAfter {
			if retryAfter, ok := ParseRetryAfter(resp.Header.Get("Retry-After")); ok {
				return retryAfter, false
			}
		}
		waitTime := bf.NextBackOff()
		return waitTime, waitTime == backoff.Stop
	}
}

func (rt *RetryableRoundTripper) logger(ctx context.Context) log.FieldLogger {
	if rt.Opts.LoggerProvider != nil {
		return rt.Opts.LoggerProvider(ctx)
	}
	return rt.Opts.Logger
}

// RetryableRoundTripperError is returned in RoundTrip method of RetryableRoundTripper
// when the original request cannot be potentially retried.
type RetryableRoundTripperError struct {
	Inner error
}

func (e *RetryableRoundTripperError) Error() string {
	return fmt.Sprintf("retryable round trip: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RetryableRoundTripperError) Unwrap() error {
	return e.Inner
}

// DefaultCheckRetry represents default function to determine either retry is needed or not.
// 429 is always retried since the server hasn't processed the request.
// Server errors and temporary network errors are retried only for idempotent requests:
// safe methods or requests whose context carries the idempotent hint.
func DefaultCheckRetry(
	ctx context.Context, req *http.Request, resp *http.Response, roundTripErr error, _ int,
) (needRetry bool, err error) {
	if ctx.Err() != nil {
		return false, nil
	}
	idempotent := isSafeMethod(req.Method) || GetIdempotentHintFromContext(ctx)
	if roundTripErr != nil {
		return idempotent && CheckErrorIsTemporary(roundTripErr), nil
	}
	if resp == nil {
		return false, fmt.Errorf("both response and round trip error are nil")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	return idempotent && resp.StatusCode >= http.StatusInternalServerError, nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// DefaultBackoffPolicy is a default backoff policy.
var DefaultBackoffPolicy = retry.PolicyFunc(func() backoff.BackOff {
	bf := backoff.NewExponentialBackOff()
	bf.InitialInterval = DefaultExponentialBackoffInitialInterval
	bf.Multiplier = DefaultExponentialBackoffMultiplier
	bf.Reset()
	return bf
})

// CheckErrorIsTemporary checks either error is temporary or not.
func CheckErrorIsTemporary(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var terr interface{ Temporary() bool }
	return errors.As(err, &terr) && terr.Temporary()
}

// ParseRetryAfter parses the value of Retry-After header.
// Both delay-seconds and HTTP-date forms are supported.
func ParseRetryAfter(val string) (time.Duration, bool) {
	if val == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(val); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	t, err := http.ParseTime(val)
	if err != nil {
		return 0, false
	}
	if d := time.Until(t); d > 0 {
		return d, true
	}
	return 0, true
}
