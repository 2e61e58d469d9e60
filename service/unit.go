/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package service runs units of work (the registry stub server, submission batches, periodic reporters)
// and stops them on OS signals, context cancellation or fatal errors.
package service

// Unit is a component with its own lifecycle.
type Unit interface {
	// Start runs the unit. It may block for the unit's lifetime or return right after initialization.
	// A unit that fails writes exactly one error to fatalErr and returns.
	// The channel must not be used after Start has returned.
	Start(fatalErr chan<- error)

	// Stop halts the unit. It may be called even if Start has failed or was never called.
	Stop(gracefully bool) error
}

// MetricsRegisterer is implemented by units that own Prometheus collectors.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}
