// SPDX-License-Identifier: MPL-2.0

package modgraph

import "fmt"

type (
	// ReentrantLoadViolation is the panic value raised when Load is called on a
	// record that has already been loaded. It is never returned as an error.
	ReentrantLoadViolation struct {
		ID string
	}

	// LoadError is returned when the load delegate fails to populate a record.
	// The record stays unloaded; whether it stays cached is up to the cache owner.
	LoadError struct {
		ID  string
		Err error
	}
)

// Error implements the error interface for ReentrantLoadViolation.
func (e *ReentrantLoadViolation) Error() string {
	return fmt.Sprintf("module %s is already loaded", e.ID)
}

// Error implements the error interface for LoadError.
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load module %s: %v", e.ID, e.Err)
}

// Unwrap returns the delegate's error.
func (e *LoadError) Unwrap() error { return e.Err }
