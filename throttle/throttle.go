/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/acronis/go-crptapi/log"
)

// Option configures a Throttle.
type Option func(*options)

type options struct {
	logger  log.FieldLogger
	metrics *MetricsCollector
}

// WithLogger sets the logger used for debug messages about queueing and interrupted waits.
func WithLogger(logger log.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics makes the Throttle report its state to the given collector.
func WithMetrics(mc *MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// Stats is a snapshot of the Throttle state.
type Stats struct {
	Limit            int
	Window           time.Duration
	InFlight         int
	Waiting          int
	AdmittedInWindow int
}

// Throttle bounds both the number of concurrently admitted calls and the number of admissions
// within any rolling window. It is safe for concurrent use.
type Throttle struct {
	limit   int
	window  time.Duration
	logger  log.FieldLogger
	metrics *MetricsCollector

	mu       sync.Mutex
	inFlight int
	// admissions is a ring of the last limit admission times, oldest at admissionsHead once full.
	admissions     []time.Time
	admissionsHead int
	waiters        list.List
	timer          *time.Timer
	timerDeadline  time.Time
}

type waiter struct {
	ready    chan struct{}
	admitted bool
}

// New creates a new Throttle admitting at most limit calls at once and at most limit calls per window.
func New(limit int, window time.Duration, opts ...Option) (*Throttle, error) {
	if limit <= 0 {
		return nil, &ConfigError{Param: "limit", Value: limit}
	}
	if window <= 0 {
		return nil, &ConfigError{Param: "window", Value: window}
	}
	o := options{logger: log.NewDisabledLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Throttle{
		limit:      limit,
		window:     window,
		logger:     o.logger,
		metrics:    o.metrics,
		admissions: make([]time.Time, 0, limit),
	}, nil
}

// NewFromConfig creates a new Throttle from the loaded configuration.
func NewFromConfig(cfg *Config, opts ...Option) (*Throttle, error) {
	return New(cfg.Limit, cfg.Window, opts...)
}

// Acquire blocks until the call may proceed or ctx is done.
// Queued callers are admitted in arrival order. On success the caller must call Release exactly once.
// If ctx is done first, Acquire returns *WaitInterruptedError and the caller holds no slot.
func (t *Throttle) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		t.metrics.observeInterrupted()
		return &WaitInterruptedError{Inner: err}
	}

	startTime := time.Now()

	t.mu.Lock()
	if t.waiters.Len() == 0 && t.admissibleLocked(startTime) {
		t.admitLocked(startTime)
		t.mu.Unlock()
		t.metrics.observeWait(0)
		return nil
	}
	w := &waiter{ready: make(chan struct{})}
	elem := t.waiters.PushBack(w)
	queueLen := t.waiters.Len()
	t.dispatchLocked(startTime)
	t.mu.Unlock()

	t.logger.Debug("waiting for throttle slot", log.Int("queue_len", queueLen))

	select {
	case <-w.ready:
		t.metrics.observeWait(time.Since(startTime))
		return nil
	case <-ctx.Done():
	}

	t.mu.Lock()
	if w.admitted {
		// Admitted concurrently with cancellation, give the slot back.
		t.inFlight--
	} else {
		t.waiters.Remove(elem)
	}
	t.dispatchLocked(time.Now())
	t.mu.Unlock()

	waited := time.Since(startTime)
	t.metrics.observeInterrupted()
	t.logger.Debug("wait for throttle slot interrupted", log.Duration("waited", waited), log.Error(ctx.Err()))
	return &WaitInterruptedError{Inner: ctx.Err(), Waited: waited}
}

// Release returns a slot obtained by Acquire and admits queued callers that may now proceed.
// It panics if there is no admitted call to release.
func (t *Throttle) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight == 0 {
		panic("throttle: Release called without matching Acquire")
	}
	t.inFlight--
	t.dispatchLocked(time.Now())
}

// Stats returns a snapshot of the current state.
func (t *Throttle) Stats() Stats {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	admitted := 0
	for _, at := range t.admissions {
		if now.Sub(at) < t.window {
			admitted++
		}
	}
	return Stats{
		Limit:            t.limit,
		Window:           t.window,
		InFlight:         t.inFlight,
		Waiting:          t.waiters.Len(),
		AdmittedInWindow: admitted,
	}
}

// admissibleLocked reports whether one more call may be admitted at now.
func (t *Throttle) admissibleLocked(now time.Time) bool {
	if t.inFlight >= t.limit {
		return false
	}
	if len(t.admissions) < t.limit {
		return true
	}
	return now.Sub(t.admissions[t.admissionsHead]) >= t.window
}

func (t *Throttle) admitLocked(now time.Time) {
	t.inFlight++
	if len(t.admissions) < t.limit {
		t.admissions = append(t.admissions, now)
	} else {
		t.admissions[t.admissionsHead] = now
		t.admissionsHead = (t.admissionsHead + 1) % t.limit
	}
	t.metrics.setState(t.inFlight, t.waiters.Len())
}

// dispatchLocked admits queued waiters from the front while possible.
// If the head is blocked only by the window, a timer is armed for the moment the oldest admission expires.
func (t *Throttle) dispatchLocked(now time.Time) {
	defer func() { t.metrics.setState(t.inFlight, t.waiters.Len()) }()
	for front := t.waiters.Front(); front != nil; front = t.waiters.Front() {
		if !t.admissibleLocked(now) {
			if t.inFlight < t.limit {
				t.armTimerLocked(now, t.admissions[t.admissionsHead].Add(t.window))
			}
			return
		}
		w := t.waiters.Remove(front).(*waiter)
		t.admitLocked(now)
		w.admitted = true
		close(w.ready)
	}
}

func (t *Throttle) armTimerLocked(now, deadline time.Time) {
	if t.timer != nil && !t.timerDeadline.IsZero() && !deadline.Before(t.timerDeadline) {
		return
	}
	t.timerDeadline = deadline
	if t.timer == nil {
		t.timer = time.AfterFunc(deadline.Sub(now), t.onTimer)
		return
	}
	t.timer.Reset(deadline.Sub(now))
}

func (t *Throttle) onTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timerDeadline = time.Time{}
	t.dispatchLocked(time.Now())
}
