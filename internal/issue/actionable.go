// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError is a failure reported to the user: the operation that
// failed, the module path or file it failed on, what to try next and an
// optional catalog entry with longer guidance.
//
//	return issue.Wrap(err, "load module", "./main.lua").
//		WithIssue(issue.ModuleLoadFailedId).
//		Suggest("Run again with --verbose to see the full error chain")
type ActionableError struct {
	// Operation is a verb phrase such as "resolve module".
	Operation string
	// Resource is the specifier or file involved, or "".
	Resource string
	// Suggestions are printed below the message, one per line.
	Suggestions []string
	// Cause is the underlying error.
	Cause error
	// IssueID selects the catalog entry, or 0 for none.
	IssueID Id
}

// Wrap returns an ActionableError for cause. The result is never nil, so it
// can be returned directly as an error.
func Wrap(cause error, operation, resource string) *ActionableError {
	return &ActionableError{
		Operation: operation,
		Resource:  resource,
		Cause:     cause,
	}
}

// WithIssue links the error to a catalog entry.
func (e *ActionableError) WithIssue(id Id) *ActionableError {
	e.IssueID = id
	return e
}

// Suggest appends hints for fixing the failure.
func (e *ActionableError) Suggest(hints ...string) *ActionableError {
	e.Suggestions = append(e.Suggestions, hints...)
	return e
}

// Error renders "failed to <operation>: <resource>: <cause>", omitting empty parts.
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error { return e.Cause }

// Format renders the message and its suggestions. Verbose output also walks
// the cause chain, one numbered line per wrapped error.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
		for _, hint := range e.Suggestions {
			b.WriteString("\n  • " + hint)
		}
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		for i, err := 1, e.Cause; err != nil; i, err = i+1, errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", i, err.Error())
		}
	}
	return b.String()
}

// Issue returns the linked catalog entry, or nil.
func (e *ActionableError) Issue() *Issue {
	if e.IssueID == 0 {
		return nil
	}
	return Get(e.IssueID)
}
