/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"github.com/acronis/go-crptapi/httpclient"
	"github.com/acronis/go-crptapi/service"
	"github.com/acronis/go-crptapi/throttle"
)

const metricsNamespace = "crpt"

// submitMetrics owns the Prometheus collectors of the throttle and the registry client.
type submitMetrics struct {
	throttle *throttle.MetricsCollector
	client   *httpclient.PrometheusMetricsCollector
}

var _ service.MetricsRegisterer = (*submitMetrics)(nil)

func newSubmitMetrics() *submitMetrics {
	return &submitMetrics{
		throttle: throttle.NewMetricsCollector(metricsNamespace),
		client:   httpclient.NewPrometheusMetricsCollector(metricsNamespace),
	}
}

func (m *submitMetrics) MustRegisterMetrics() {
	m.throttle.MustRegister()
	m.client.MustRegister()
}

func (m *submitMetrics) UnregisterMetrics() {
	m.throttle.Unregister()
	m.client.Unregister()
}
