/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package submitter

import (
	"errors"
	"fmt"
)

// ErrRequestTimeout is matched (via errors.Is) when the transport did not report a result
// within the configured request timeout.
var ErrRequestTimeout = errors.New("registry request timed out")

// Outcome is the terminal result of one submission.
// Err is nil on success. Otherwise it describes why the submission failed:
// *throttle.WaitInterruptedError, *AwaitInterruptedError, ErrRequestTimeout or a transport error.
type Outcome struct {
	Response Response
	Err      error
}

// OK reports whether the submission succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// AwaitInterruptedError is reported when the caller's context ends while waiting for the transport result.
type AwaitInterruptedError struct {
	RequestID string
	Inner     error
}

func (e *AwaitInterruptedError) Error() string {
	return fmt.Sprintf("wait for registry response (request %s) interrupted: %s", e.RequestID, e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *AwaitInterruptedError) Unwrap() error {
	return e.Inner
}
