// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invowk/modsys/pkg/modgraph"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const (
	shellExportsCmd = "exports"
	shellRequireCmd = "require"
)

// ShellExitError reports a shell module that finished with a non-zero status.
type ShellExitError struct {
	Filename string
	Status   int
}

func (e *ShellExitError) Error() string {
	return fmt.Sprintf("shell module %s exited with status %d", e.Filename, e.Status)
}

// LoadShell runs a POSIX shell script in the embedded interpreter. The
// script sees MODSYS_FILENAME and MODSYS_DIRNAME and two extra commands:
//
//	exports NAME [VALUE...]  sets an export; several values form a list
//	require SPEC             prints the required module's exports as JSON
//
// A failing require stops the script with the require error.
func LoadShell(s *System, m *modgraph.Module, filename string) error {
	src, err := s.readFile(filename)
	if err != nil {
		return err
	}
	prog, err := syntax.NewParser().Parse(bytes.NewReader(src), filename)
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	exports, ok := m.Exports.(map[string]any)
	if !ok {
		exports = map[string]any{}
		m.Exports = exports
	}

	env := []string{
		"MODSYS_FILENAME=" + filename,
		"MODSYS_DIRNAME=" + filepath.Dir(filename),
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + os.Getenv("HOME"),
	}
	runner, err := interp.New(
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(s.stdin, s.stdout, s.stderr),
		interp.ExecHandlers(s.shellHandler(m, exports)),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(s.ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &ShellExitError{Filename: filename, Status: int(exitStatus)}
		}
		return err
	}
	return nil
}

func (s *System) shellHandler(m *modgraph.Module, exports map[string]any) func(interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return next(ctx, args)
			}
			hc := interp.HandlerCtx(ctx)

			switch args[0] {
			case shellExportsCmd:
				if len(args) < 2 || args[1] == "" {
					fmt.Fprintln(hc.Stderr, "usage: exports NAME [VALUE...]")
					return interp.NewExitStatus(2)
				}
				exports[args[1]] = shellValue(args[2:])
				return nil
			case shellRequireCmd:
				if len(args) != 2 {
					fmt.Fprintln(hc.Stderr, "usage: require SPEC")
					return interp.NewExitStatus(2)
				}
				v, err := m.Require(args[1])
				if err != nil {
					return err
				}
				out, err := json.Marshal(Printable(s.Export(v)))
				if err != nil {
					fmt.Fprintf(hc.Stderr, "require: %v\n", err)
					return interp.NewExitStatus(1)
				}
				fmt.Fprintln(hc.Stdout, string(out))
				return nil
			default:
				return next(ctx, args)
			}
		}
	}
}

func shellValue(values []string) any {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return toAnySlice(values)
	}
}
