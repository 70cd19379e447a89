// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

const (
	// DefaultDescriptorName is the package descriptor consulted for directory candidates.
	DefaultDescriptorName = "package.json"
	// DefaultModulesDir is the directory searched for bare specifiers.
	DefaultModulesDir = "node_modules"
	// DefaultIndexName is the base name tried inside directory candidates.
	DefaultIndexName = "index"
)

type (
	// Extensions lists the registered module extensions in registration order.
	// The order is the probe order: the first extension that matches wins.
	Extensions interface {
		Names() []string
	}

	// Builtins reports whether a specifier is a reserved builtin name.
	Builtins interface {
		Has(name string) bool
	}

	// ExtensionList is a fixed Extensions source.
	ExtensionList []string

	// BuiltinFunc adapts a predicate to the Builtins interface.
	BuiltinFunc func(name string) bool

	// Option configures a Resolver.
	Option func(*Resolver)

	// Resolver maps (referrer, specifier) pairs to canonical file paths.
	// It holds no mutable state of its own; results depend only on the
	// filesystem and the configured extension order.
	Resolver struct {
		fs             afero.Fs
		workingDir     string
		extensions     Extensions
		builtins       Builtins
		descriptorName string
		modulesDir     string
		indexName      string
		tracer         Tracer
		logger         *log.Logger
	}
)

// Names returns the extensions in registration order.
func (l ExtensionList) Names() []string { return l }

// Has reports whether name is a builtin.
func (f BuiltinFunc) Has(name string) bool {
	if f == nil {
		return false
	}
	return f(name)
}

// WithFS sets the filesystem probed by the resolver. Defaults to the OS filesystem.
func WithFS(fsys afero.Fs) Option {
	return func(r *Resolver) { r.fs = fsys }
}

// WithWorkingDir sets the base directory for root-context resolution.
func WithWorkingDir(dir string) Option {
	return func(r *Resolver) { r.workingDir = dir }
}

// WithExtensions sets the extension source.
func WithExtensions(ext Extensions) Option {
	return func(r *Resolver) { r.extensions = ext }
}

// WithBuiltins sets the builtin name set.
func WithBuiltins(b Builtins) Option {
	return func(r *Resolver) { r.builtins = b }
}

// WithDescriptorName overrides the package descriptor file name.
func WithDescriptorName(name string) Option {
	return func(r *Resolver) { r.descriptorName = name }
}

// WithModulesDir overrides the directory name used for bare specifiers.
func WithModulesDir(name string) Option {
	return func(r *Resolver) { r.modulesDir = name }
}

// WithIndexName overrides the index base name.
func WithIndexName(name string) Option {
	return func(r *Resolver) { r.indexName = name }
}

// WithTracer installs a callback receiving every probed candidate.
func WithTracer(t Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver. When no working directory is given the process
// working directory is used.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		descriptorName: DefaultDescriptorName,
		modulesDir:     DefaultModulesDir,
		indexName:      DefaultIndexName,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	if r.extensions == nil {
		r.extensions = ExtensionList(nil)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}

	if r.workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		r.workingDir = wd
	}
	abs, err := filepath.Abs(r.workingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	r.workingDir = abs

	return r, nil
}

// WorkingDir returns the base directory used when there is no referrer.
func (r *Resolver) WorkingDir() string { return r.workingDir }

// FS returns the filesystem the resolver probes.
func (r *Resolver) FS() afero.Fs { return r.fs }

// Resolve maps specifier to a canonical path. referrer is the filename of the
// requiring module, or "" when resolving from the root context.
func (r *Resolver) Resolve(referrer, specifier string) (string, error) {
	if r.builtins != nil && r.builtins.Has(specifier) {
		return specifier, nil
	}

	base := r.workingDir
	if referrer != "" {
		base = filepath.Dir(referrer)
	}

	var (
		found string
		err   error
	)
	if isPathLike(specifier) {
		candidate := specifier
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(base, specifier)
		}
		found, err = r.resolveFile(filepath.Clean(candidate))
	} else {
		found, err = r.resolveModulesDir(specifier, base)
	}
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", &ResolutionFailure{Specifier: specifier, Referrer: referrer}
	}

	r.logger.Debug("resolved module", "specifier", specifier, "referrer", referrer, "path", found)
	return found, nil
}

// isPathLike reports whether s is relative ("", ".", "..", "./…", "../…") or absolute.
func isPathLike(s string) bool {
	switch s {
	case "", ".", "..":
		return true
	}
	if strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || strings.HasPrefix(s, "/") {
		return true
	}
	return filepath.IsAbs(s)
}
