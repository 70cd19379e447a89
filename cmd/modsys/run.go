// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/invowk/modsys/pkg/modsys"

	"github.com/spf13/cobra"
)

func newRunCommand(app *App) *cobra.Command {
	var format string

	runCmd := &cobra.Command{
		Use:   "run ENTRY",
		Short: "Load an entry module and print its exports",
		Long: `Load an entry module and print its exports.

ENTRY is resolved from the working directory like a root require, so
"./main" finds main.lua, main.json or any other registered extension.
Functions in the exports are printed as "` + modsys.FunctionPlaceholder + `".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), args[0], f)
		},
	}

	runCmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json, yaml, toml)")
	return runCmd
}

func (a *App) run(ctx context.Context, entry, format string) error {
	s, err := a.newSystem(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(ctx) }()

	m, err := s.RunMain(entry)
	if err != nil {
		return moduleError(err, "load module", entry)
	}

	out, err := encodeExports(modsys.Printable(s.Export(m.Exports)), format)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, out)
	return nil
}
