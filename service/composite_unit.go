/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"strings"
	"sync"
)

// CompositeUnit runs several units as one, e.g. the registry stub together with a submission batch.
type CompositeUnit struct {
	Units []Unit
}

var _ Unit = (*CompositeUnit)(nil)
var _ MetricsRegisterer = (*CompositeUnit)(nil)

// NewCompositeUnit creates a new composite unit.
func NewCompositeUnit(units ...Unit) *CompositeUnit {
	return &CompositeUnit{Units: units}
}

// Start starts all units concurrently and blocks until all of them return.
// When one of them fails, the rest are stopped non-gracefully and a *CompositeUnitError
// with all collected errors is sent to fatalErr.
func (cu *CompositeUnit) Start(fatalErr chan<- error) {
	type result struct {
		err error
	}
	results := make(chan result, len(cu.Units))
	for _, u := range cu.Units {
		u := u
		go func() {
			unitErr := make(chan error, 1)
			u.Start(unitErr)
			select {
			case err := <-unitErr:
				results <- result{err: err}
			default:
				results <- result{}
			}
		}()
	}

	var errs []error
	stopped := false
	for range cu.Units {
		res := <-results
		if res.err == nil {
			continue
		}
		errs = append(errs, res.err)
		if !stopped {
			stopped = true
			if stopErr := cu.Stop(false); stopErr != nil {
				errs = append(errs, stopErr.(*CompositeUnitError).UnitErrors...)
			}
		}
	}
	if len(errs) != 0 {
		fatalErr <- &CompositeUnitError{UnitErrors: errs}
	}
}

// Stop stops all units concurrently and returns *CompositeUnitError if any of them failed to stop.
func (cu *CompositeUnit) Stop(gracefully bool) error {
	errs := make([]error, len(cu.Units))
	var wg sync.WaitGroup
	wg.Add(len(cu.Units))
	for i, u := range cu.Units {
		i, u := i, u
		go func() {
			defer wg.Done()
			errs[i] = u.Stop(gracefully)
		}()
	}
	wg.Wait()

	var unitErrs []error
	for _, err := range errs {
		if err != nil {
			unitErrs = append(unitErrs, err)
		}
	}
	if len(unitErrs) != 0 {
		return &CompositeUnitError{UnitErrors: unitErrs}
	}
	return nil
}

// MustRegisterMetrics registers metrics of all units that own any.
func (cu *CompositeUnit) MustRegisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.MustRegisterMetrics()
		}
	}
}

// UnregisterMetrics unregisters metrics of all units that own any.
func (cu *CompositeUnit) UnregisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.UnregisterMetrics()
		}
	}
}

// CompositeUnitError holds errors of the units in a composition.
type CompositeUnitError struct {
	UnitErrors []error
}

func (e *CompositeUnitError) Error() string {
	msgs := make([]string, 0, len(e.UnitErrors))
	for _, err := range e.UnitErrors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap returns the errors of the units.
func (e *CompositeUnitError) Unwrap() []error {
	return e.UnitErrors
}
