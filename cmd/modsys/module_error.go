// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/invowk/modsys/internal/dag"
	"github.com/invowk/modsys/internal/issue"
	"github.com/invowk/modsys/pkg/modgraph"
	"github.com/invowk/modsys/pkg/modsys"
	"github.com/invowk/modsys/pkg/resolve"
)

// classifyModuleError maps a resolve or load failure to an exit code and the
// catalog entry that explains it. A failure inside a loaded module is a load
// failure even when its root cause is a missing dependency.
func classifyModuleError(err error) (int, issue.Id) {
	code := ExitGeneric
	var loadErr *modgraph.LoadError
	if errors.As(err, &loadErr) {
		code = ExitLoad
	}

	var (
		descErr  *resolve.DescriptorError
		exitErr  *modsys.ShellExitError
		cycleErr *dag.CycleError
	)
	switch {
	case errors.As(err, &descErr):
		if code == ExitGeneric {
			code = ExitResolution
		}
		return code, issue.DescriptorInvalidId
	case errors.Is(err, resolve.ErrNotFound):
		if code == ExitGeneric {
			code = ExitResolution
		}
		return code, issue.ModuleNotFoundId
	case errors.As(err, &exitErr):
		return code, issue.ScriptExecutionFailedId
	case errors.Is(err, fs.ErrPermission):
		return code, issue.PermissionDeniedId
	case errors.As(err, &cycleErr):
		return code, issue.RequireCycleId
	case code == ExitLoad:
		return code, issue.ModuleLoadFailedId
	default:
		return code, 0
	}
}

// moduleError wraps err as an ActionableError carrying its exit code.
func moduleError(err error, operation, resource string) error {
	code, id := classifyModuleError(err)
	ae := issue.Wrap(err, operation, resource).WithIssue(id)

	switch id {
	case issue.ModuleNotFoundId:
		ae.Suggest(fmt.Sprintf("Run 'modsys resolve %s --explain' to see every path that was checked", resource))
	case issue.ModuleLoadFailedId:
		ae.Suggest("Run again with --verbose to see the full error chain")
	case issue.DescriptorInvalidId:
		ae.Suggest("Make sure the package descriptor is valid JSON with a string \"main\" field")
	case issue.ScriptExecutionFailedId:
		ae.Suggest("Check the script's stderr output above")
	case issue.RequireCycleId:
		ae.Suggest("Drop --order to see the tree of loaded modules instead")
	}

	return &ExitError{Code: code, Err: ae}
}

// printError writes err for the user: the actionable summary with its
// suggestions, plus the catalog guidance when verbose.
func (a *App) printError(w io.Writer, err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+err.Error())
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+ae.Format(a.verbose))
	if !a.verbose || ae.Issue() == nil {
		return
	}
	if rendered, renderErr := ae.Issue().Render("dark"); renderErr == nil {
		fmt.Fprint(w, rendered)
	}
}
