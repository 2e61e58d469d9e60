/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-crptapi/internal/libinfo"
)

// MetricsCollector represents collector of metrics for throttle admissions.
// All methods are safe to call on a nil collector.
type MetricsCollector struct {
	InFlight         prometheus.Gauge
	Waiting          prometheus.Gauge
	Admissions       prometheus.Counter
	InterruptedWaits prometheus.Counter
	WaitDuration     prometheus.Histogram
}

// NewMetricsCollector creates a new instance of MetricsCollector.
func NewMetricsCollector(namespace string) *MetricsCollector {
	constLabels := libinfo.AddPrometheusLibVersionLabel(nil)
	return &MetricsCollector{
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "throttle",
			ConstLabels: constLabels,
			Name:        "in_flight",
			Help:        "Number of admitted calls that have not been released yet.",
		}),
		Waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "throttle",
			ConstLabels: constLabels,
			Name:        "waiting",
			Help:        "Number of callers queued for a slot.",
		}),
		Admissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "throttle",
			ConstLabels: constLabels,
			Name:        "admissions_total",
			Help:        "Number of admitted calls.",
		}),
		InterruptedWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "throttle",
			ConstLabels: constLabels,
			Name:        "interrupted_waits_total",
			Help:        "Number of waits abandoned because the caller's context was done.",
		}),
		WaitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "throttle",
			ConstLabels: constLabels,
			Name:        "wait_duration_seconds",
			Help:        "Time spent waiting for admission.",
			Buckets:     []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (mc *MetricsCollector) MustRegister() {
	prometheus.MustRegister(mc.collectors()...)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (mc *MetricsCollector) Unregister() {
	for _, c := range mc.collectors() {
		prometheus.Unregister(c)
	}
}

func (mc *MetricsCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{mc.InFlight, mc.Waiting, mc.Admissions, mc.InterruptedWaits, mc.WaitDuration}
}

func (mc *MetricsCollector) setState(inFlight, waiting int) {
	if mc == nil {
		return
	}
	mc.InFlight.Set(float64(inFlight))
	mc.Waiting.Set(float64(waiting))
}

func (mc *MetricsCollector) observeWait(d time.Duration) {
	if mc == nil {
		return
	}
	mc.Admissions.Inc()
	mc.WaitDuration.Observe(d.Seconds())
}

func (mc *MetricsCollector) observeInterrupted() {
	if mc == nil {
		return
	}
	mc.InterruptedWaits.Inc()
}
