/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package retry runs operations with retries driven by cenkalti/backoff policies.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-crptapi/log"
)

// IsRetryable reports whether the error is transient and the operation may be repeated.
type IsRetryable func(error) bool

// RetryableFunc is a function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// DoWithRetry executes fn until it succeeds, fails with a non-retryable error,
// the policy gives up, or ctx is done.
// A nil isRetryable treats every error as retryable. A nil notify disables notifications.
// The error of the last attempt is returned.
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc) error {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	op := func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, bctx, notify)
}

// NotifyWithLogger returns backoff.Notify that logs every failed attempt at warn level.
func NotifyWithLogger(logger log.FieldLogger, msg string) backoff.Notify {
	return func(err error, next time.Duration) {
		logger.Warn(msg, log.Error(err), log.Duration("next_attempt_in", next))
	}
}

// PolicyFunc is an adapter to allow the use of ordinary functions as Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// ExponentialBackoffPolicy repeats up to maxAttempts times with exponentially growing delays.
type ExponentialBackoffPolicy struct {
	InitialInterval time.Duration
	MaxAttempts     int
}

// NewExponentialBackoffPolicy returns an exponential backoff policy
// with given initial interval and max retry attempt count (0 means no limit).
func NewExponentialBackoffPolicy(initialInterval time.Duration, maxRetryAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{InitialInterval: initialInterval, MaxAttempts: maxRetryAttempts}
}

// NewBackOff implements Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	return withMaxRetries(eb, p.MaxAttempts)
}

// ConstantBackoffPolicy repeats up to maxAttempts times with constant interval delays.
type ConstantBackoffPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// NewConstantBackoffPolicy returns a constant backoff policy
// with given interval and max retry attempt count (0 means no limit).
func NewConstantBackoffPolicy(interval time.Duration, maxRetryAttempts int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{Interval: interval, MaxAttempts: maxRetryAttempts}
}

// NewBackOff implements Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return withMaxRetries(backoff.NewConstantBackOff(p.Interval), p.MaxAttempts)
}

func withMaxRetries(bf backoff.BackOff, maxAttempts int) backoff.BackOff {
	if maxAttempts > 0 {
		bf = backoff.WithMaxRetries(bf, uint64(maxAttempts))
	}
	bf.Reset()
	return bf
}
