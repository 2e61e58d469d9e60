/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package throttle provides a blocking admission gate for calls to a scarce remote resource.
//
// A Throttle admits at most Limit calls at once and at most Limit calls within any rolling
// window of Window length. Callers that exceed either bound are queued and admitted in FIFO order,
// either when a slot is released or when the oldest admission leaves the window.
//
//	thr, err := throttle.New(10, time.Second)
//	if err != nil {
//		return err
//	}
//	if err = thr.Acquire(ctx); err != nil {
//		return err // *WaitInterruptedError
//	}
//	defer thr.Release()
package throttle
