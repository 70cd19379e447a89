// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modsys",
		Short: "Resolve and load CommonJS-style module graphs",
		Long: TitleStyle.Render("modsys") + SubtitleStyle.Render(" - Resolve and load CommonJS-style module graphs") + `

modsys maps require specifiers to files the way Node.js does: relative and
absolute paths are probed with each registered extension, directories fall
back to their package descriptor or index file, and bare names are searched
in node_modules directories up to the filesystem root.

Modules are Lua scripts, JSON, CUE, TOML or YAML documents, POSIX shell
scripts, or WebAssembly binaries.

` + SubtitleStyle.Render("Examples:") + `
  modsys run ./main.lua             Load an entry module and print its exports
  modsys resolve lodash --explain   Show every path checked for a specifier
  modsys graph ./main.lua           Show the tree of loaded modules
  modsys config show                Show the effective configuration`,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/modsys/config.cue)")
	rootCmd.PersistentFlags().StringVarP(&app.workDir, "workdir", "C", "", "directory root specifiers are resolved from (default is the current directory)")

	rootCmd.AddCommand(
		newRunCommand(app),
		newResolveCommand(app),
		newGraphCommand(app),
		newBuiltinsCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code carried by an ExitError.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(ExitGeneric)
	}

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			app.printError(w, err)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitGeneric)
	}
}
