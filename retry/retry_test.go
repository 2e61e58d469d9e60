/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/log/logtest"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func TestDoWithRetry(t *testing.T) {
	t.Run("succeeds after retries", func(t *testing.T) {
		calls := 0
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 5), nil, nil,
			func(ctx context.Context) error {
				calls++
				if calls < 3 {
					return errTransient
				}
				return nil
			})
		require.NoError(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("max attempts", func(t *testing.T) {
		calls := 0
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 2), nil, nil,
			func(ctx context.Context) error {
				calls++
				return errTransient
			})
		require.ErrorIs(t, err, errTransient)
		require.Equal(t, 3, calls)
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		calls := 0
		isRetryable := func(err error) bool { return errors.Is(err, errTransient) }
		err := DoWithRetry(context.Background(), NewExponentialBackoffPolicy(time.Millisecond, 10), isRetryable, nil,
			func(ctx context.Context) error {
				calls++
				return errFatal
			})
		require.ErrorIs(t, err, errFatal)
		require.Equal(t, 1, calls)
	})

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := DoWithRetry(ctx, NewConstantBackoffPolicy(time.Hour, 0), nil, nil,
			func(ctx context.Context) error {
				calls++
				cancel()
				return errTransient
			})
		require.Error(t, err)
		require.Equal(t, 1, calls)
	})

	t.Run("notify logs attempts", func(t *testing.T) {
		logger := logtest.NewRecorder()
		_ = DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 2), nil,
			NotifyWithLogger(logger, "submission failed, retrying"),
			func(ctx context.Context) error { return errTransient })
		require.Equal(t, 2, logger.CountAtLevel(log.LevelWarn))
		entry, found := logger.FindEntry("submission failed, retrying")
		require.True(t, found)
		_, hasNext := entry.FindField("next_attempt_in")
		require.True(t, hasNext)
	})
}

func TestPolicies(t *testing.T) {
	bf := NewConstantBackoffPolicy(50*time.Millisecond, 1).NewBackOff()
	require.Equal(t, 50*time.Millisecond, bf.NextBackOff())
	require.Less(t, bf.NextBackOff(), time.Duration(0), "stop after max attempts")

	bf = NewExponentialBackoffPolicy(10*time.Millisecond, 0).NewBackOff()
	first := bf.NextBackOff()
	require.Greater(t, first, time.Duration(0))
	require.LessOrEqual(t, first, 15*time.Millisecond)
}
