/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/log/logtest"
	crpttestutil "github.com/acronis/go-crptapi/testutil"
)

func TestMetricsRoundTripper(t *testing.T) {
	srv := newTestServerForRetries(http.StatusCreated, http.StatusBadRequest)
	defer srv.Close()

	collector := NewPrometheusMetricsCollector("crpt")
	client := &http.Client{Transport: NewMetricsRoundTripperWithOpts(http.DefaultTransport, MetricsRoundTripperOpts{
		RequestType: "create-document",
		Collector:   collector,
	})}

	for i := 0; i < 2; i++ {
		_, err := doRequest(t, client, context.Background(), srv.URL+"/api/v3/lk/documents/create")
		require.NoError(t, err)
	}

	require.Equal(t, 2, testutil.CollectAndCount(collector.Durations))
	host := strings.TrimPrefix(srv.URL, "http://")
	hist := collector.Durations.WithLabelValues("create-document", host, "POST /api/v3/lk/documents/create", "201")
	crpttestutil.RequireSamplesCountInHistogram(t, hist.(prometheus.Histogram), 1)
}

func TestMetricsRoundTripper_NoCollector(t *testing.T) {
	next := &headerRecorder{}
	roundTrip(t, NewMetricsRoundTripperWithOpts(next, MetricsRoundTripperOpts{}), newTestRequest(t, context.Background()))
	require.Equal(t, 1, next.calls)
}

func TestNewWithOpts(t *testing.T) {
	t.Run("full chain", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusTooManyRequests, http.StatusOK)
		defer srv.Close()

		cfg := NewDefaultConfig()
		cfg.Retries.Enabled = true
		cfg.Retries.Policy = PolicyConfig{Strategy: RetryPolicyConstant, ConstantBackoffInterval: time.Millisecond}
		cfg.Metrics.Enabled = true

		logger := logtest.NewRecorder()
		collector := NewPrometheusMetricsCollector("crpt")
		var gotAuth, gotUA string
		client, err := NewWithOpts(cfg, Opts{
			UserAgent:    "crptsubmit/1.0",
			RequestType:  "create-document",
			Logger:       logger,
			Collector:    collector,
			AuthProvider: StaticTokenProvider("secret"),
			Delegate: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
				gotAuth, gotUA = r.Header.Get("Authorization"), r.Header.Get("User-Agent")
				return http.DefaultTransport.RoundTrip(r)
			}),
		})
		require.NoError(t, err)
		require.Equal(t, DefaultClientWaitTimeout, client.Timeout)

		resp, err := doRequest(t, client, context.Background(), srv.URL)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		infos := srv.ReqInfos()
		require.Len(t, infos, 2)
		require.NotEmpty(t, infos[0].requestID)
		require.Equal(t, infos[0].requestID, infos[1].requestID, "retries share the request id")
		require.Equal(t, "Bearer secret", gotAuth)
		require.Equal(t, "crptsubmit/1.0", gotUA)

		done := logger.FindAllEntriesByFilter(func(e logtest.RecordedEntry) bool {
			return e.Text == "client http request done"
		})
		require.Len(t, done, 2)
		_, found := logger.FindEntry("request will be retried")
		require.True(t, found)
		require.Equal(t, 2, testutil.CollectAndCount(collector.Durations))
	})

	t.Run("logging disabled", func(t *testing.T) {
		srv := newTestServerForRetries(http.StatusOK)
		defer srv.Close()

		cfg := NewDefaultConfig()
		cfg.Logger.Enabled = false
		logger := logtest.NewRecorder()
		client := MustWithOpts(cfg, Opts{Logger: logger})
		_, err := doRequest(t, client, context.Background(), srv.URL)
		require.NoError(t, err)
		require.Empty(t, logger.Entries())
	})

	t.Run("invalid retries", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Retries.Enabled = true
		cfg.Retries.MaxAttempts = -3
		_, err := NewWithOpts(cfg, Opts{})
		require.ErrorContains(t, err, "create retryable round tripper")
		require.Panics(t, func() { MustWithOpts(cfg, Opts{}) })
	})
}

type roundTripperFunc func(r *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
