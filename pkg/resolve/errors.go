// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel wrapped by ResolutionFailure.
var ErrNotFound = errors.New("module not found")

type (
	// ResolutionFailure is returned when no candidate path satisfies a specifier.
	ResolutionFailure struct {
		// Specifier is the string that could not be resolved.
		Specifier string
		// Referrer is the filename of the requiring module, or "" for root requests.
		Referrer string
	}

	// DescriptorError is returned when a package descriptor exists but cannot be used.
	DescriptorError struct {
		// Path is the descriptor file.
		Path string
		// Err is the parse or decode failure.
		Err error
	}
)

// Error implements the error interface for ResolutionFailure.
func (e *ResolutionFailure) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("module %q not found", e.Specifier)
	}
	return fmt.Sprintf("module %q not found (required from %s)", e.Specifier, e.Referrer)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *ResolutionFailure) Unwrap() error { return ErrNotFound }

// Error implements the error interface for DescriptorError.
func (e *DescriptorError) Error() string {
	return fmt.Sprintf("invalid package descriptor %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DescriptorError) Unwrap() error { return e.Err }
