/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RussellLuo/slidingwindow"
	lru "github.com/hashicorp/golang-lru"
)

// SlidingWindowLimiter implements sliding window rate limiting algorithm.
// Limiters of the least recently used keys are evicted when there are more than maxKeys of them.
type SlidingWindowLimiter struct {
	maxRate Rate
	mu      sync.Mutex
	keys    *lru.Cache
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(maxRate Rate, maxKeys int) (*SlidingWindowLimiter, error) {
	keys, err := lru.New(maxKeys)
	if err != nil {
		return nil, fmt.Errorf("new LRU store for keys: %w", err)
	}
	return &SlidingWindowLimiter{maxRate: maxRate, keys: keys}, nil
}

func (l *SlidingWindowLimiter) limiterFor(key string) *slidingwindow.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.keys.Get(key); ok {
		return v.(*slidingwindow.Limiter)
	}
	lim, _ := slidingwindow.NewLimiter(l.maxRate.Duration, int64(l.maxRate.Count),
		func() (slidingwindow.Window, slidingwindow.StopFunc) {
			return slidingwindow.NewLocalWindow()
		})
	l.keys.Add(key, lim)
	return lim
}

// Allow checks if the request should be allowed based on the rate limit.
// The returned retryAfter points to the start of the next window.
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	if l.limiterFor(key).Allow() {
		return true, 0, nil
	}
	now := time.Now()
	return false, now.Truncate(l.maxRate.Duration).Add(l.maxRate.Duration).Sub(now), nil
}
