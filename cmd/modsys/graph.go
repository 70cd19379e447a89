// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/modsys/pkg/modgraph"
	"github.com/invowk/modsys/pkg/modsys"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"
)

func newGraphCommand(app *App) *cobra.Command {
	var order bool

	graphCmd := &cobra.Command{
		Use:   "graph ENTRY",
		Short: "Load an entry module and show the modules it pulled in",
		Long: `Load an entry module and show the modules it pulled in.

The tree follows construction: each module appears under the module whose
require loaded it. Requires served from the cache are listed as leaves.
With --order the loaded modules are printed dependencies first; a require
cycle makes that order impossible and is reported as an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.graph(cmd.Context(), args[0], order)
		},
	}

	graphCmd.Flags().BoolVar(&order, "order", false, "print modules with dependencies first")
	return graphCmd
}

func (a *App) graph(ctx context.Context, entry string, order bool) error {
	s, err := a.newSystem(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(ctx) }()

	m, err := s.RunMain(entry)
	if err != nil {
		return moduleError(err, "load module", entry)
	}

	if order {
		ids, err := s.Order()
		if err != nil {
			return moduleError(err, "order modules", entry)
		}
		for i, id := range ids {
			fmt.Fprintf(a.stdout, "%d. %s\n", i+1, id)
		}
		return nil
	}

	t := moduleTree(s, m, s.WorkingDir()).
		RootStyle(TitleStyle).
		EnumeratorStyle(SubtitleStyle)
	fmt.Fprintln(a.stdout, t.String())
	return nil
}

// moduleTree builds the construction tree below m. Requires that did not
// construct a child become leaves.
func moduleTree(s *modsys.System, m *modgraph.Module, base string) *tree.Tree {
	t := tree.Root(moduleLabel(m.ID, base)).Enumerator(tree.RoundedEnumerator)

	constructed := make([]string, 0, len(m.Children))
	for _, child := range m.Children {
		constructed = append(constructed, child.ID)
		t.Child(moduleTree(s, child, base))
	}

	var seen []string
	for _, id := range m.Requires {
		if slices.Contains(constructed, id) || slices.Contains(seen, id) {
			continue
		}
		seen = append(seen, id)
		kind := "cached"
		if s.Builtins().Has(id) {
			kind = "builtin"
		}
		t.Child(SubtitleStyle.Render(fmt.Sprintf("%s (%s)", moduleLabel(id, base), kind)))
	}
	return t
}

// moduleLabel shows ids below base relative to it.
func moduleLabel(id, base string) string {
	if !filepath.IsAbs(id) {
		return id
	}
	rel, err := filepath.Rel(base, id)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return id
	}
	return rel
}
