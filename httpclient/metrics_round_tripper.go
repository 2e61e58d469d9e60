/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-crptapi/internal/libinfo"
)

// MetricsCollector receives one observation per finished request.
// status is the HTTP status code, or "0" when no response was received.
type MetricsCollector interface {
	RequestDuration(requestType, host, summary, status string, startTime time.Time)
}

// PrometheusMetricsCollector exposes request durations as a Prometheus histogram
// labeled by request type, registry host, "METHOD /path" summary and status.
type PrometheusMetricsCollector struct {
	Durations *prometheus.HistogramVec
}

// NewPrometheusMetricsCollector creates a new Prometheus metrics collector.
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	return &PrometheusMetricsCollector{
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http_client",
			ConstLabels: libinfo.AddPrometheusLibVersionLabel(nil),
			Name:        "request_duration_seconds",
			Help:        "Duration of registry requests.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"type", "host", "summary", "status"}),
	}
}

// MustRegister registers the Prometheus metrics.
func (p *PrometheusMetricsCollector) MustRegister() {
	prometheus.MustRegister(p.Durations)
}

// RequestDuration observes the duration of the request and the status code.
func (p *PrometheusMetricsCollector) RequestDuration(requestType, host, summary, status string, start time.Time) {
	p.Durations.WithLabelValues(requestType, host, summary, status).Observe(time.Since(start).Seconds())
}

// Unregister the Prometheus metrics.
func (p *PrometheusMetricsCollector) Unregister() {
	prometheus.Unregister(p.Durations)
}

// MetricsRoundTripper is an HTTP transport that measures requests done.
type MetricsRoundTripper struct {
	Delegate    http.RoundTripper
	RequestType string
	Collector   MetricsCollector
}

// MetricsRoundTripperOpts represents options for MetricsRoundTripper.
type MetricsRoundTripperOpts struct {
	// RequestType is used as the "type" label when the context doesn't carry one.
	RequestType string

	Collector MetricsCollector
}

// NewMetricsRoundTripperWithOpts creates an HTTP transport that measures requests done.
func NewMetricsRoundTripperWithOpts(delegate http.RoundTripper, opts MetricsRoundTripperOpts) http.RoundTripper {
	requestType := opts.RequestType
	if requestType == "" {
		requestType = DefaultRequestType
	}
	return &MetricsRoundTripper{Delegate: delegate, RequestType: requestType, Collector: opts.Collector}
}

// RoundTrip measures external requests done.
func (rt *MetricsRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Collector == nil {
		return rt.Delegate.RoundTrip(r)
	}

	status := "0"
	start := time.Now()

	resp, err := rt.Delegate.RoundTrip(r)
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	requestType := GetRequestTypeFromContext(r.Context())
	if requestType == "" {
		requestType = rt.RequestType
	}
	rt.Collector.RequestDuration(requestType, r.URL.Host, r.Method+" "+r.URL.Path, status, start)
	return resp, err
}
