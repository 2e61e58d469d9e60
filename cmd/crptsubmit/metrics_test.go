/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestSubmitMetrics(t *testing.T) {
	m := newSubmitMetrics()
	m.MustRegisterMetrics()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	require.True(t, names["crpt_throttle_in_flight"])
	require.True(t, names["crpt_throttle_admissions_total"])

	m.UnregisterMetrics()
	// Registering again must not panic after unregistering.
	m.MustRegisterMetrics()
	m.UnregisterMetrics()
}
