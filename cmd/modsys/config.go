// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/invowk/modsys/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `modsys config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modsys configuration",
		Long: `Manage modsys configuration.

Configuration is looked up in order:
  - the file given with --config
  - Linux: ~/.config/modsys/config.cue
    macOS: ~/Library/Application Support/modsys/config.cue
    Windows: %APPDATA%\modsys\config.cue
  - modsys.cue in the working directory

MODSYS_* environment variables override file values, e.g. MODSYS_MODULES_DIR.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig(cmd.Context())
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.initConfig(force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, dir)
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig(ctx context.Context) error {
	cfg, source, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	if source == "" {
		fmt.Fprintf(a.stdout, "// %s\n", SubtitleStyle.Render("source: defaults"))
	} else {
		fmt.Fprintf(a.stdout, "// %s\n", SubtitleStyle.Render("source: "+source))
	}
	fmt.Fprint(a.stdout, config.GenerateCUE(cfg))
	return nil
}

func (a *App) initConfig(force bool) error {
	path, err := config.CreateDefaultConfig(a.configPath, force)
	if err != nil {
		return &ExitError{Code: ExitGeneric, Err: err}
	}
	fmt.Fprintf(a.stdout, "%s %s\n", SuccessStyle.Render("Configuration written to"), path)
	return nil
}
