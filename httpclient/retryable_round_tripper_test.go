/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/log/logtest"
	"github.com/acronis/go-crptapi/retry"
)

type reqInfo struct {
	method             string
	body               string
	retryAttemptHeader string
	requestID          string
}

type testServerForRetries struct {
	*httptest.Server
	mu         sync.Mutex
	reqInfos   []reqInfo
	respCodes  []int
	retryAfter string
}

func newTestServerForRetries(respCodes ...int) *testServerForRetries {
	srv := &testServerForRetries{respCodes: respCodes}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		srv.mu.Lock()
		srv.reqInfos = append(srv.reqInfos, reqInfo{
			method:             r.Method,
			body:               string(body),
			retryAttemptHeader: r.Header.Get(RetryAttemptNumberHeader),
			requestID:          r.Header.Get(RequestIDHeader),
		})
		respCode := http.StatusOK
		if len(srv.respCodes) > 0 {
			respCode = srv.respCodes[0]
			srv.respCodes = srv.respCodes[1:]
		}
		retryAfter := srv.retryAfter
		srv.mu.Unlock()

		if retryAfter != "" && respCode == http.StatusTooManyRequests {
			rw.Header().Set("Retry-After", retryAfter)
		}
		rw.WriteHeader(respCode)
		_, _ = rw.Write([]byte("attempt body"))
	}))
	return srv
}

func (s *testServerForRetries) ReqInfos() []reqInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reqInfo(nil), s.reqInfos...)
}

var fastBackoff = retry.PolicyFunc(func() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
})

func newRetryableClient(t *testing.T, opts RetryableRoundTripperOpts) *http.Client {
	t.Helper()
	if opts.BackoffPolicy == nil {
		opts.BackoffPolicy = fastBackoff
	}
	rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, opts)
	require.NoError(t, err)
	return &http.Client{Transport: rt}
}

func TestRetryableRoundTripper(t *testing.T) {
	t.Run("429 is retried for POST and body is resent", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK)
		defer srv.Close()

		client := newRetryableClient(t, RetryableRoundTripperOpts{})
		req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{"doc":1}`))
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		infos := srv.ReqInfos()
		require.Len(t, infos, 3)
		for i, info := range infos {
			require.Equal(t, `{"doc":1}`, info.body)
			require.Equal(t, []string{"", "1", "2"}[i], info.retryAttemptHeader)
		}
		require.Empty(t, req.Header.Get(RetryAttemptNumberHeader), "caller's request must not be modified")
	})

	t.Run("5xx is not retried for POST without idempotent hint", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusServiceUnavailable, http.StatusOK)
		defer srv.Close()

		client := newRetryableClient(t, RetryableRoundTripperOpts{})
		req, err := http.NewRequest(http.MethodPost, srv.URL, bytes.NewReader([]byte("x")))
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 1)
	})

	t.Run("5xx is retried for POST with idempotent hint", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusServiceUnavailable, http.StatusOK)
		defer srv.Close()

		client := newRetryableClient(t, RetryableRoundTripperOpts{})
		ctx := NewContextWithIdempotentHint(context.Background(), true)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL, bytes.NewReader([]byte("x")))
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 2)
	})

	t.Run("5xx is retried for GET", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusBadGateway, http.StatusOK)
		defer srv.Close()

		client := newRetryableClient(t, RetryableRoundTripperOpts{})
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 2)
	})

	t.Run("max attempts", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusTooManyRequests, http.StatusTooManyRequests,
			http.StatusTooManyRequests, http.StatusTooManyRequests)
		defer srv.Close()

		logger := logtest.NewRecorder()
		client := newRetryableClient(t, RetryableRoundTripperOpts{MaxRetryAttempts: 2, Logger: logger})
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 3)
		_, found := logger.FindEntry("max retry attempts exceeded")
		require.True(t, found)
	})

	t.Run("retry-after is respected", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusTooManyRequests, http.StatusOK)
		srv.retryAfter = "1"
		defer srv.Close()

		client := newRetryableClient(t, RetryableRoundTripperOpts{})
		start := time.Now()
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.GreaterOrEqual(t, time.Since(start), time.Second)
	})

	t.Run("retry-after is ignored", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusTooManyRequests, http.StatusOK)
		srv.retryAfter = "10"
		defer srv.Close()

		client := newRetryableClient(t, RetryableRoundTripperOpts{IgnoreRetryAfter: true})
		start := time.Now()
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("context canceled while waiting", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusTooManyRequests, http.StatusOK)
		srv.retryAfter = "10"
		defer srv.Close()

		client := newRetryableClient(t, RetryableRoundTripperOpts{})
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		}
		require.Len(t, srv.ReqInfos(), 1)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		_, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{MaxRetryAttempts: -5})
		require.EqualError(t, err, "incorrect max retry attempts -5")
	})
}

func TestParseRetryAfter(t *testing.T) {
	d, ok := ParseRetryAfter("3")
	require.True(t, ok)
	require.Equal(t, 3*time.Second, d)

	_, ok = ParseRetryAfter("")
	require.False(t, ok)

	_, ok = ParseRetryAfter("-1")
	require.False(t, ok)

	_, ok = ParseRetryAfter("soon")
	require.False(t, ok)

	d, ok = ParseRetryAfter(time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	require.True(t, ok)
	require.Greater(t, d, 58*time.Minute)

	d, ok = ParseRetryAfter(time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat))
	require.True(t, ok)
	require.Zero(t, d)
}
