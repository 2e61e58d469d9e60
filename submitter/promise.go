/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package submitter

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/acronis/go-crptapi/log"
)

type result struct {
	resp Response
	err  error
}

// promise is resolved by a Transport exactly once. Later resolutions are dropped.
type promise struct {
	ch        chan result
	once      sync.Once
	abandoned atomic.Bool
	logger    log.FieldLogger
}

func newPromise(logger log.FieldLogger) *promise {
	return &promise{ch: make(chan result, 1), logger: logger}
}

func (p *promise) resolve(resp Response, err error) {
	resolved := false
	p.once.Do(func() {
		p.ch <- result{resp, err}
		resolved = true
	})
	if !resolved {
		p.logger.Warn("transport reported more than one result, ignoring")
		return
	}
	if p.abandoned.Load() {
		p.logger.Debug("transport result arrived after the submission was abandoned", log.Error(err))
	}
}

// await blocks until the promise is resolved or ctx is done.
func (p *promise) await(ctx context.Context) (result, bool) {
	select {
	case r := <-p.ch:
		return r, true
	case <-ctx.Done():
		// a result delivered concurrently with cancellation still wins
		select {
		case r := <-p.ch:
			return r, true
		default:
		}
		p.abandoned.Store(true)
		return result{}, false
	}
}
