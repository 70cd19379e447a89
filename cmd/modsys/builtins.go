// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newBuiltinsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "builtins",
		Short: "List builtin module names and the extension probe order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.listBuiltins(cmd.Context())
		},
	}
}

func (a *App) listBuiltins(ctx context.Context) error {
	s, err := a.newSystem(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(ctx) }()

	fmt.Fprintln(a.stdout, TitleStyle.Render("Builtins"))
	for _, name := range s.Builtins().Names() {
		fmt.Fprintf(a.stdout, "  %s\n", CmdStyle.Render(name))
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, TitleStyle.Render("Extensions"))
	for i, ext := range s.Extensions().Names() {
		line := fmt.Sprintf("  %d. %s", i+1, CmdStyle.Render(ext))
		if ext == s.Extensions().Default() {
			line += SubtitleStyle.Render(" (default)")
		}
		fmt.Fprintln(a.stdout, line)
	}
	return nil
}
