// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/invowk/modsys/pkg/modgraph"
	"github.com/invowk/modsys/pkg/resolve"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// System is a filesystem-backed module system. It owns the cache, the
// builtin table, the extension table, and the runtimes shared by handlers.
type System struct {
	fs           afero.Fs
	extensions   *Extensions
	builtins     *Builtins
	cache        *Cache
	resolver     *resolve.Resolver
	graph        *modgraph.Graph
	logger       *log.Logger
	evictOnError bool

	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	lua  *luaRuntime
	wasm *wasmRuntime
}

// New creates a System. Without options it resolves against the OS
// filesystem from the process working directory with the built-in handlers.
func New(opts ...Option) (*System, error) {
	cfg := &settings{
		order:      slices.Clone(DefaultExtensionOrder),
		defaultExt: DefaultExtension,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.fs == nil {
		cfg.fs = afero.NewOsFs()
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}
	if cfg.stdout == nil {
		cfg.stdout = os.Stdout
	}
	if cfg.stderr == nil {
		cfg.stderr = os.Stderr
	}

	s := &System{
		fs:           cfg.fs,
		cache:        newCache(),
		logger:       cfg.logger,
		evictOnError: cfg.evictOnError,
		ctx:          cfg.ctx,
		stdin:        cfg.stdin,
		stdout:       cfg.stdout,
		stderr:       cfg.stderr,
	}

	extensions, err := buildExtensions(cfg)
	if err != nil {
		return nil, err
	}
	s.extensions = extensions

	builtins, err := buildBuiltins(cfg, extensions)
	if err != nil {
		return nil, err
	}
	s.builtins = builtins

	resolverOpts := []resolve.Option{
		resolve.WithFS(cfg.fs),
		resolve.WithWorkingDir(cfg.workingDir),
		resolve.WithExtensions(extensions),
		resolve.WithBuiltins(builtins),
		resolve.WithLogger(cfg.logger),
	}
	if cfg.descriptorName != "" {
		resolverOpts = append(resolverOpts, resolve.WithDescriptorName(cfg.descriptorName))
	}
	if cfg.modulesDir != "" {
		resolverOpts = append(resolverOpts, resolve.WithModulesDir(cfg.modulesDir))
	}
	if cfg.indexName != "" {
		resolverOpts = append(resolverOpts, resolve.WithIndexName(cfg.indexName))
	}
	if cfg.tracer != nil {
		resolverOpts = append(resolverOpts, resolve.WithTracer(cfg.tracer))
	}
	s.resolver, err = resolve.New(resolverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	s.graph = modgraph.New(s.cached, s.resolve, s.load, modgraph.WithLogger(cfg.logger))

	return s, nil
}

func buildExtensions(cfg *settings) (*Extensions, error) {
	handlers := builtinHandlers()
	order := make([]string, 0, len(cfg.order)+len(cfg.handlers))
	for _, ext := range cfg.order {
		norm, err := normalizeExt(ext)
		if err != nil {
			return nil, err
		}
		order = append(order, norm)
	}
	for _, c := range cfg.handlers {
		ext, err := normalizeExt(c.ext)
		if err != nil {
			return nil, err
		}
		handlers[ext] = c.handler
		if !slices.Contains(order, ext) {
			order = append(order, ext)
		}
	}

	e := newExtensions()
	for _, ext := range order {
		h, ok := handlers[ext]
		if !ok {
			return nil, fmt.Errorf("extension %s has no handler", ext)
		}
		if err := e.Register(ext, h); err != nil {
			return nil, err
		}
	}
	if err := e.setDefault(cfg.defaultExt); err != nil {
		return nil, err
	}
	return e, nil
}

func buildBuiltins(cfg *settings, extensions *Extensions) (*Builtins, error) {
	b := newBuiltins()
	if err := b.set(BuiltinPath, pathBuiltin()); err != nil {
		return nil, err
	}
	for _, c := range cfg.builtins {
		if c.name == BuiltinModule {
			return nil, fmt.Errorf("builtin %s is reserved", BuiltinModule)
		}
		if err := b.set(c.name, c.exports); err != nil {
			return nil, err
		}
	}
	names := append(b.Names(), BuiltinModule)
	slices.Sort(names)
	if err := b.set(BuiltinModule, moduleBuiltin(names, extensions.Names())); err != nil {
		return nil, err
	}
	return b, nil
}

// cached is the graph's cache collaborator.
func (s *System) cached(referrer *modgraph.Module, specifier string) (*modgraph.Module, error) {
	if s.builtins.Has(specifier) {
		return s.builtins.record(s.graph, specifier), nil
	}
	if m, ok := s.cache.Get(specifier); ok {
		return m, nil
	}

	resolved, err := s.resolve(referrer, specifier)
	if err != nil {
		return nil, err
	}
	m, _ := s.cache.Get(resolved)
	return m, nil
}

// resolve is the graph's resolve collaborator.
func (s *System) resolve(referrer *modgraph.Module, specifier string) (string, error) {
	from := ""
	if referrer != nil {
		from = referrer.Filename
	}
	return s.resolver.Resolve(from, specifier)
}

// load is the graph's load delegate. The record is registered in the cache
// before the handler runs so that cycles observe it.
func (s *System) load(m *modgraph.Module, filename string) error {
	m.Cache = s.cache
	m.Extensions = s.extensions
	s.cache.Set(filename, m)

	ext := filepath.Ext(filename)
	h, ok := s.extensions.Handler(ext)
	if !ok {
		return fmt.Errorf("no handler registered for %s", filename)
	}

	s.logger.Debug("loading module", "id", m.ID, "extension", ext)
	if err := h(s, m, filename); err != nil {
		if s.evictOnError {
			if cur, ok := s.cache.Get(filename); ok && cur == m {
				s.cache.Delete(filename)
				s.logger.Debug("evicted module after failed load", "id", m.ID)
			}
		}
		return err
	}
	return nil
}

// RunMain resolves path from the working directory, publishes it as the
// entry module and loads it.
func (s *System) RunMain(path string) (*modgraph.Module, error) {
	return s.graph.RunMain(path)
}

// Resolve maps specifier to a canonical path as if required from referrer,
// a filename or "" for the working directory. Nothing is loaded.
func (s *System) Resolve(referrer, specifier string) (string, error) {
	return s.resolver.Resolve(referrer, specifier)
}

// Evict removes id from the cache. It reports whether an entry was removed.
// Builtins cannot be evicted.
func (s *System) Evict(id string) bool {
	if _, ok := s.cache.Get(id); !ok {
		return false
	}
	s.cache.Delete(id)
	return true
}

// Close releases the Lua state and the WebAssembly runtime.
func (s *System) Close(ctx context.Context) error {
	var errs []error
	if s.wasm != nil {
		errs = append(errs, s.wasm.close(ctx))
		s.wasm = nil
	}
	s.lua = nil
	return errors.Join(errs...)
}

// Cache returns the module cache.
func (s *System) Cache() *Cache { return s.cache }

// Builtins returns the builtin table.
func (s *System) Builtins() *Builtins { return s.builtins }

// Extensions returns the extension table.
func (s *System) Extensions() *Extensions { return s.extensions }

// Graph returns the module graph.
func (s *System) Graph() *modgraph.Graph { return s.graph }

// WorkingDir returns the base directory for root-context resolution.
func (s *System) WorkingDir() string { return s.resolver.WorkingDir() }

// FS returns the filesystem modules are read from.
func (s *System) FS() afero.Fs { return s.fs }

// Logger returns the system logger.
func (s *System) Logger() *log.Logger { return s.logger }

// Context returns the context handed to shell and WebAssembly modules.
func (s *System) Context() context.Context { return s.ctx }
