/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"time"

	"github.com/stretchr/testify/require"
)

// RequireNoErrorInChannel fails if a non-nil error is already buffered in c. It never blocks.
func RequireNoErrorInChannel(t require.TestingT, c <-chan error, msgAndArgs ...interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	select {
	case err := <-c:
		require.NoError(t, err, msgAndArgs...)
	default:
	}
}

// RequireErrorInChannel waits up to timeout for an error in c and returns it.
// Units report fatal errors this way.
func RequireErrorInChannel(t require.TestingT, c <-chan error, timeout time.Duration, msgAndArgs ...interface{}) error {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-c:
		require.Error(t, err, msgAndArgs...)
		return err
	case <-timer.C:
		require.FailNow(t, "no error received within "+timeout.String(), msgAndArgs...)
		return nil
	}
}
