// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// [ActionableError] carries the failed operation, the resource involved and
// suggested fixes. Errors may link to an [Issue], a Markdown guide rendered with
// glamour when the CLI reports a module-resolution or load failure.
package issue
