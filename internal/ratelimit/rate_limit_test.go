/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LimiterTestSuite struct {
	suite.Suite
	alg string
}

func TestLeakyBucketLimiter(t *testing.T) {
	suite.Run(t, &LimiterTestSuite{alg: AlgLeakyBucket})
}

func TestSlidingWindowLimiter(t *testing.T) {
	suite.Run(t, &LimiterTestSuite{alg: AlgSlidingWindow})
}

func (ts *LimiterTestSuite) newLimiter(rate Rate, maxKeys int) Limiter {
	// Burst 1 lets the leaky bucket admit two requests at once, same as the sliding window with Count 2.
	lim, err := NewLimiter(ts.alg, rate, rate.Count-1, maxKeys)
	ts.Require().NoError(err)
	return lim
}

func (ts *LimiterTestSuite) TestAllowSequential() {
	limiter := ts.newLimiter(Rate{Count: 2, Duration: time.Second}, 100)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allow, retryAfter, err := limiter.Allow(ctx, "participant-1")
		ts.Require().NoError(err)
		ts.True(allow, "request #%d", i+1)
		ts.Zero(retryAfter)
	}

	allow, retryAfter, err := limiter.Allow(ctx, "participant-1")
	ts.Require().NoError(err)
	ts.False(allow)
	ts.Greater(retryAfter, time.Duration(0))
	ts.LessOrEqual(retryAfter, time.Second)
}

func (ts *LimiterTestSuite) TestKeysAreIndependent() {
	limiter := ts.newLimiter(Rate{Count: 1, Duration: time.Minute}, 100)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allow, _, err := limiter.Allow(ctx, "participant-"+strconv.Itoa(i))
		ts.Require().NoError(err)
		ts.True(allow)
	}
	allow, _, err := limiter.Allow(ctx, "participant-0")
	ts.Require().NoError(err)
	ts.False(allow)
}

func TestNewLimiter_Errors(t *testing.T) {
	_, err := NewLimiter("tokenBucket", Rate{Count: 1, Duration: time.Second}, 0, 0)
	require.EqualError(t, err, `unknown rate limiting algorithm "tokenBucket"`)

	_, err = NewLimiter(AlgSlidingWindow, Rate{Count: 0, Duration: time.Second}, 0, 0)
	require.EqualError(t, err, "rate 0/1s must be positive")
}
