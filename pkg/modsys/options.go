// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"context"
	"io"

	"github.com/invowk/modsys/internal/config"
	"github.com/invowk/modsys/pkg/resolve"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

type (
	// Option configures a System.
	Option func(*settings)

	// customHandler is a handler registered through WithExtension.
	customHandler struct {
		ext     string
		handler Handler
	}

	// customBuiltin is a builtin registered through WithBuiltin.
	customBuiltin struct {
		name    string
		exports any
	}

	settings struct {
		fs             afero.Fs
		workingDir     string
		order          []string
		handlers       []customHandler
		defaultExt     string
		descriptorName string
		modulesDir     string
		indexName      string
		builtins       []customBuiltin
		evictOnError   bool
		logger         *log.Logger
		ctx            context.Context
		stdin          io.Reader
		stdout         io.Writer
		stderr         io.Writer
		tracer         resolve.Tracer
	}
)

// WithFS sets the filesystem modules are resolved and read from.
// Defaults to the OS filesystem.
func WithFS(fsys afero.Fs) Option {
	return func(s *settings) { s.fs = fsys }
}

// WithWorkingDir sets the base directory for root-context resolution.
func WithWorkingDir(dir string) Option {
	return func(s *settings) { s.workingDir = dir }
}

// WithExtensionOrder replaces the probe order of the registered extensions.
// Every listed extension needs a built-in handler or one added with WithExtension.
func WithExtensionOrder(exts ...string) Option {
	return func(s *settings) { s.order = append([]string(nil), exts...) }
}

// WithExtension registers h for ext. A new extension is probed after the
// configured order; an existing one keeps its position.
func WithExtension(ext string, h Handler) Option {
	return func(s *settings) {
		s.handlers = append(s.handlers, customHandler{ext: ext, handler: h})
	}
}

// WithDefaultExtension selects the handler used for unregistered extensions.
func WithDefaultExtension(ext string) Option {
	return func(s *settings) { s.defaultExt = ext }
}

// WithDescriptorName overrides the package descriptor file name.
func WithDescriptorName(name string) Option {
	return func(s *settings) { s.descriptorName = name }
}

// WithModulesDir overrides the directory searched for bare specifiers.
func WithModulesDir(name string) Option {
	return func(s *settings) { s.modulesDir = name }
}

// WithIndexName overrides the base name tried inside directories.
func WithIndexName(name string) Option {
	return func(s *settings) { s.indexName = name }
}

// WithBuiltin reserves name and serves exports for it.
func WithBuiltin(name string, exports any) Option {
	return func(s *settings) {
		s.builtins = append(s.builtins, customBuiltin{name: name, exports: exports})
	}
}

// WithEvictOnError removes a record from the cache when its handler fails.
func WithEvictOnError(evict bool) Option {
	return func(s *settings) { s.evictOnError = evict }
}

// WithLogger sets the logger shared by the resolver, the graph and the handlers.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithStdio sets the streams handed to shell and WebAssembly modules.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(s *settings) {
		s.stdin = stdin
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithContext sets the context used by shell and WebAssembly modules.
func WithContext(ctx context.Context) Option {
	return func(s *settings) { s.ctx = ctx }
}

// WithTracer installs a callback receiving every probe the resolver makes.
func WithTracer(t resolve.Tracer) Option {
	return func(s *settings) { s.tracer = t }
}

// FromConfig applies the extension order, file names and eviction policy of cfg.
func FromConfig(cfg *config.Config) Option {
	return func(s *settings) {
		if cfg == nil {
			return
		}
		if len(cfg.Extensions) > 0 {
			s.order = cfg.ExtensionNames()
		}
		if cfg.DefaultExtension != "" {
			s.defaultExt = cfg.DefaultExtension.String()
		}
		if cfg.DescriptorFile != "" {
			s.descriptorName = cfg.DescriptorFile.String()
		}
		if cfg.ModulesDir != "" {
			s.modulesDir = cfg.ModulesDir.String()
		}
		if cfg.IndexName != "" {
			s.indexName = cfg.IndexName.String()
		}
		s.evictOnError = cfg.EvictOnError
	}
}
