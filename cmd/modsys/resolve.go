// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/invowk/modsys/pkg/modsys"
	"github.com/invowk/modsys/pkg/resolve"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// explainWidth is the word-wrap width of the --explain report.
const explainWidth = 120

func newResolveCommand(app *App) *cobra.Command {
	var (
		from    string
		explain bool
	)

	resolveCmd := &cobra.Command{
		Use:   "resolve SPECIFIER",
		Short: "Print the file a specifier resolves to",
		Long: `Print the file a specifier resolves to, without loading anything.

With --from the specifier is resolved as if required from that file;
otherwise it is resolved from the working directory. --explain lists every
filesystem check in the order it was made.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.resolve(cmd.Context(), args[0], from, explain)
		},
	}

	resolveCmd.Flags().StringVar(&from, "from", "", "file the specifier is required from")
	resolveCmd.Flags().BoolVar(&explain, "explain", false, "show every path that was checked")
	return resolveCmd
}

func (a *App) resolve(ctx context.Context, specifier, from string, explain bool) error {
	var probes []resolve.Probe
	s, err := a.newSystem(ctx, modsys.WithTracer(func(p resolve.Probe) {
		probes = append(probes, p)
	}))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(ctx) }()

	referrer := from
	if referrer != "" && !filepath.IsAbs(referrer) {
		referrer = filepath.Join(s.WorkingDir(), referrer)
	}

	resolved, resolveErr := s.Resolve(referrer, specifier)
	if resolveErr == nil {
		fmt.Fprintln(a.stdout, SuccessStyle.Render(resolved))
	}

	if explain {
		origin := s.WorkingDir()
		if referrer != "" {
			origin = referrer
		}
		report, err := renderProbeReport(specifier, origin, resolved, s.Builtins().Has(specifier), probes)
		if err != nil {
			return err
		}
		fmt.Fprint(a.stdout, report)
	}

	if resolveErr != nil {
		return moduleError(resolveErr, "resolve module", specifier)
	}
	return nil
}

// renderProbeReport renders the probe trace as a markdown table.
func renderProbeReport(specifier, origin, resolved string, builtin bool, probes []resolve.Probe) (string, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# Resolving `%s`\n\nFrom `%s`\n\n", specifier, origin)

	switch {
	case builtin:
		md.WriteString("Builtin module: the filesystem is not consulted.\n")
	case len(probes) == 0:
		md.WriteString("No paths were checked.\n")
	default:
		md.WriteString("| # | Check | Path | Result |\n|---|---|---|---|\n")
		for i, p := range probes {
			result := "missing"
			if p.Found {
				result = "found"
			}
			fmt.Fprintf(&md, "| %d | %s | `%s` | %s |\n", i+1, p.Kind, p.Path, result)
		}
	}

	if resolved != "" {
		fmt.Fprintf(&md, "\n**Resolved to** `%s`\n", resolved)
	} else {
		md.WriteString("\n**Not found**\n")
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(explainWidth),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md.String())
}
