// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/invowk/modsys/internal/config"
	"github.com/invowk/modsys/pkg/modsys"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and builds its module system through it.
	App struct {
		Config config.Provider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		// Persistent flag values.
		verbose    bool
		configPath string
		workDir    string
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}, nil
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: a.configPath,
		BaseDir:        a.workDir,
	}
}

// loadConfig loads the effective configuration and the file it came from.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	cfg, source, err := a.Config.LoadWithSource(ctx, a.loadOptions())
	if err != nil {
		return nil, "", &ExitError{Code: ExitGeneric, Err: err}
	}
	return cfg, source, nil
}

// newLogger builds the CLI logger. --verbose wins over log.level.
func (a *App) newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
	})

	level := log.InfoLevel
	if parsed, err := log.ParseLevel(cfg.Log.Level.String()); err == nil {
		level = parsed
	}
	if a.verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}

// newSystem builds a module system from the effective configuration.
func (a *App) newSystem(ctx context.Context, extra ...modsys.Option) (*modsys.System, error) {
	cfg, source, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger := a.newLogger(cfg)
	if source != "" {
		logger.Debug("loaded configuration", "path", source)
	}

	opts := []modsys.Option{
		modsys.FromConfig(cfg),
		modsys.WithLogger(logger),
		modsys.WithContext(ctx),
		modsys.WithStdio(a.stdin, a.stdout, a.stderr),
	}
	if a.workDir != "" {
		opts = append(opts, modsys.WithWorkingDir(a.workDir))
	}
	opts = append(opts, extra...)

	s, err := modsys.New(opts...)
	if err != nil {
		return nil, &ExitError{Code: ExitGeneric, Err: err}
	}
	return s, nil
}
