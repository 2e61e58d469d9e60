/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Rate describes the frequency of requests.
type Rate struct {
	Count    int
	Duration time.Duration
}

// String returns the rate in "count/duration" form.
func (r Rate) String() string {
	return fmt.Sprintf("%d/%s", r.Count, r.Duration)
}

// Limiter interface defines the rate limiting contract.
type Limiter interface {
	Allow(ctx context.Context, key string) (allow bool, retryAfter time.Duration, err error)
}

// Algorithm names.
const (
	AlgLeakyBucket   = "leakyBucket"
	AlgSlidingWindow = "slidingWindow"
)

// DefaultMaxKeys is the default number of keys whose state is kept in memory.
const DefaultMaxKeys = 10000

// NewLimiter creates a limiter that implements the given algorithm.
// maxBurst is used by the leaky bucket only.
func NewLimiter(alg string, maxRate Rate, maxBurst, maxKeys int) (Limiter, error) {
	if maxRate.Count <= 0 || maxRate.Duration <= 0 {
		return nil, fmt.Errorf("rate %s must be positive", maxRate)
	}
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	switch alg {
	case AlgLeakyBucket:
		return NewLeakyBucketLimiter(maxRate, maxBurst, maxKeys)
	case AlgSlidingWindow:
		return NewSlidingWindowLimiter(maxRate, maxKeys)
	default:
		return nil, fmt.Errorf("unknown rate limiting algorithm %q", alg)
	}
}
