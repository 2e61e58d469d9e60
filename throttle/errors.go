/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is matched (via errors.Is) by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid throttle configuration")

// ConfigError is returned by New when the throttle parameters are invalid.
type ConfigError struct {
	Param string
	Value interface{}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s must be positive, got %v", ErrInvalidConfig.Error(), e.Param, e.Value)
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// WaitInterruptedError is returned by Acquire when the caller's context is done before a slot is admitted.
type WaitInterruptedError struct {
	Inner  error
	Waited time.Duration
}

func (e *WaitInterruptedError) Error() string {
	return fmt.Sprintf("wait for throttle slot interrupted after %s: %s", e.Waited, e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *WaitInterruptedError) Unwrap() error {
	return e.Inner
}
