// SPDX-License-Identifier: MPL-2.0

package modgraph

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

type (
	// body is the executable part of a fake module.
	body func(m *Module) error

	// fakeSystem is an in-memory loader: identifiers are canonical paths and
	// bodies are Go closures.
	fakeSystem struct {
		cache    map[string]*Module
		bodies   map[string]body
		loads    map[string]int
		resolved []string
	}
)

func newFakeSystem(bodies map[string]body) *fakeSystem {
	return &fakeSystem{
		cache:  map[string]*Module{},
		bodies: bodies,
		loads:  map[string]int{},
	}
}

func (f *fakeSystem) graph() *Graph {
	return New(f.cached, f.resolve, f.load)
}

func (f *fakeSystem) cached(_ *Module, specifier string) (*Module, error) {
	return f.cache[specifier], nil
}

func (f *fakeSystem) resolve(_ *Module, specifier string) (string, error) {
	f.resolved = append(f.resolved, specifier)
	if _, ok := f.bodies[specifier]; !ok {
		return "", fmt.Errorf("module %q not found", specifier)
	}
	return specifier, nil
}

func (f *fakeSystem) load(m *Module, filename string) error {
	f.cache[filename] = m
	f.loads[filename]++
	if b := f.bodies[filename]; b != nil {
		return b(m)
	}
	return nil
}

func selfExporting(m *Module) error {
	m.Exports = m
	return nil
}

func TestRequire_ChildIsGraphRecord(t *testing.T) {
	t.Parallel()

	newGraph := func() *Graph {
		cache := map[string]*Module{}
		return New(
			func(_ *Module, s string) (*Module, error) { return cache[s], nil },
			func(_ *Module, s string) (string, error) { return s, nil },
			func(m *Module, filename string) error {
				cache[filename] = m
				return selfExporting(m)
			},
		)
	}

	t.Run("from RunMain", func(t *testing.T) {
		t.Parallel()

		g := newGraph()
		main, err := g.RunMain("root")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		exports, err := main.Require("child")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		child, ok := exports.(*Module)
		if !ok {
			t.Fatalf("exports = %T, want *Module", exports)
		}
		if child.Graph() != g {
			t.Error("child was constructed by a different graph")
		}
		if child.Parent != main {
			t.Errorf("child.Parent = %v, want main", child.Parent)
		}
	})

	t.Run("from free root", func(t *testing.T) {
		t.Parallel()

		g := newGraph()
		root := g.NewModule("root", nil)
		exports, err := root.Require("child")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		child, ok := exports.(*Module)
		if !ok {
			t.Fatalf("exports = %T, want *Module", exports)
		}
		if child.Graph() != g {
			t.Error("child was constructed by a different graph")
		}
		if child.Parent != root {
			t.Errorf("child.Parent = %v, want root", child.Parent)
		}
	})
}

func TestNewModule(t *testing.T) {
	t.Parallel()

	g := newFakeSystem(nil).graph()
	parent := g.NewModule("/a.lua", nil)
	child := g.NewModule("/b.lua", parent)

	if parent.Parent != nil {
		t.Errorf("root Parent = %v, want nil", parent.Parent)
	}
	if child.ID != "/b.lua" || child.Filename != "/b.lua" {
		t.Errorf("child id/filename = %q/%q", child.ID, child.Filename)
	}
	if child.Loaded() {
		t.Error("new record must not be loaded")
	}
	if got := len(parent.Children); got != 1 || parent.Children[0] != child {
		t.Errorf("parent.Children = %v, want [child]", parent.Children)
	}
	exports, ok := child.Exports.(map[string]any)
	if !ok || len(exports) != 0 {
		t.Errorf("initial Exports = %#v, want empty map", child.Exports)
	}
}

func TestNewBuiltin(t *testing.T) {
	t.Parallel()

	g := newFakeSystem(nil).graph()
	exports := map[string]any{"sep": "/"}
	m := g.NewBuiltin("path", exports)

	if !m.Loaded() {
		t.Error("builtin must be loaded")
	}
	if m.Parent != nil {
		t.Error("builtin must have no parent")
	}
	if m.ID != "path" {
		t.Errorf("ID = %q, want %q", m.ID, "path")
	}
	if got := m.Exports.(map[string]any); got["sep"] != "/" {
		t.Errorf("Exports = %#v", m.Exports)
	}
}

func TestRequire_CacheHitReturnsSameBindings(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem(map[string]body{
		"/main": func(m *Module) error {
			first, err := m.Require("/dep")
			if err != nil {
				return err
			}
			second, err := m.Require("/dep")
			if err != nil {
				return err
			}
			if first.(*Module) != second.(*Module) {
				return errors.New("second require returned different bindings")
			}
			return nil
		},
		"/dep": selfExporting,
	})

	main, err := sys.graph().RunMain("/main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sys.loads["/dep"] != 1 {
		t.Errorf("dep loaded %d times, want 1", sys.loads["/dep"])
	}
	if len(main.Children) != 1 {
		t.Errorf("main has %d children, want 1", len(main.Children))
	}
	if want := []string{"/dep", "/dep"}; !slices.Equal(main.Requires, want) {
		t.Errorf("Requires = %v, want %v", main.Requires, want)
	}
}

func TestRequire_CircularObservesPartialExports(t *testing.T) {
	t.Parallel()

	var seenFromB any
	sys := newFakeSystem(map[string]body{
		"/a": func(m *Module) error {
			exports := m.Exports.(map[string]any)
			exports["early"] = true
			if _, err := m.Require("/b"); err != nil {
				return err
			}
			exports["late"] = true
			return nil
		},
		"/b": func(m *Module) error {
			a, err := m.Require("/a")
			if err != nil {
				return err
			}
			seenFromB = a
			return nil
		},
	})

	main, err := sys.graph().RunMain("/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	partial, ok := seenFromB.(map[string]any)
	if !ok {
		t.Fatalf("b observed %T, want map", seenFromB)
	}
	if partial["early"] != true {
		t.Error("b should observe bindings set before the cycle")
	}
	if partial["late"] != true {
		t.Error("b holds the live container, which must reflect later writes")
	}
	if sys.loads["/a"] != 1 || sys.loads["/b"] != 1 {
		t.Errorf("loads = %v, want each module once", sys.loads)
	}

	b := main.Children[0]
	if len(b.Children) != 0 {
		t.Errorf("cycle edge must not construct a record, got %d children", len(b.Children))
	}
	if want := []string{"/a"}; !slices.Equal(b.Requires, want) {
		t.Errorf("b.Requires = %v, want %v", b.Requires, want)
	}
}

func TestRequire_ResolveFailure(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem(map[string]body{"/main": nil})
	g := sys.graph()
	main, err := g.RunMain("/main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := main.Require("/missing"); err == nil {
		t.Fatal("expected resolve error")
	}
	if len(main.Children) != 0 {
		t.Errorf("failed resolve constructed %d children", len(main.Children))
	}
	if len(main.Requires) != 0 {
		t.Errorf("failed resolve recorded requires %v", main.Requires)
	}
}

func TestRequire_CachedError(t *testing.T) {
	t.Parallel()

	errCache := errors.New("cache unavailable")
	g := New(
		func(*Module, string) (*Module, error) { return nil, errCache },
		func(_ *Module, s string) (string, error) { return s, nil },
		func(*Module, string) error { return nil },
	)
	root := g.NewModule("/root", nil)

	if _, err := root.Require("/x"); !errors.Is(err, errCache) {
		t.Errorf("err = %v, want %v", err, errCache)
	}
}

func TestLoad_ErrorLeavesRecordUnloaded(t *testing.T) {
	t.Parallel()

	errBody := errors.New("syntax error")
	sys := newFakeSystem(map[string]body{
		"/main": func(m *Module) error {
			_, err := m.Require("/broken")
			return err
		},
		"/broken": func(*Module) error { return errBody },
	})

	main, err := sys.graph().RunMain("/main")
	if err == nil {
		t.Fatal("expected load error")
	}
	if !errors.Is(err, errBody) {
		t.Errorf("err = %v, want it to wrap %v", err, errBody)
	}

	var le *LoadError
	if !errors.As(err, &le) || le.ID != "/main" {
		t.Errorf("outer LoadError = %v, want id /main", le)
	}
	if main.Loaded() {
		t.Error("main must stay unloaded")
	}

	broken := sys.cache["/broken"]
	if broken == nil {
		t.Fatal("broken record should still be cached")
	}
	if broken.Loaded() {
		t.Error("broken must stay unloaded")
	}
}

func TestLoad_TwicePanics(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem(map[string]body{"/m": nil})
	g := sys.graph()
	m := g.NewModule("/m", nil)
	if err := m.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range 2 {
		func() {
			defer func() {
				r := recover()
				v, ok := r.(*ReentrantLoadViolation)
				if !ok {
					t.Fatalf("attempt %d: recovered %v, want *ReentrantLoadViolation", i, r)
				}
				if v.ID != "/m" {
					t.Errorf("attempt %d: violation id = %q", i, v.ID)
				}
			}()
			_ = m.Load()
		}()
	}

	if sys.loads["/m"] != 1 {
		t.Errorf("delegate ran %d times, want 1", sys.loads["/m"])
	}
}

func TestLoad_BuiltinPanics(t *testing.T) {
	t.Parallel()

	g := newFakeSystem(nil).graph()
	m := g.NewBuiltin("path", nil)

	defer func() {
		if _, ok := recover().(*ReentrantLoadViolation); !ok {
			t.Error("loading a builtin must panic")
		}
	}()
	_ = m.Load()
}

func TestRunMain_EntryPropagation(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem(map[string]body{
		"/main": func(m *Module) error {
			_, err := m.Require("/dep")
			return err
		},
		"/dep": func(m *Module) error {
			_, err := m.Require("/leaf")
			return err
		},
		"/leaf":  nil,
		"/other": nil,
		"/late":  nil,
	})
	g := sys.graph()

	if g.Main() != nil {
		t.Fatal("Main must be nil before RunMain")
	}

	main, err := g.RunMain("/main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Main() != main {
		t.Error("Main() should return the entry record")
	}
	if !main.IsMain() {
		t.Error("entry should observe itself")
	}
	dep := main.Children[0]
	if dep.Main != main {
		t.Errorf("dep.Main = %v, want main", dep.Main)
	}
	leaf := dep.Children[0]
	if leaf.ID != "/leaf" || leaf.Main != main {
		t.Errorf("grandchild %s Main = %v, want main", leaf.ID, leaf.Main)
	}

	other, err := g.RunMain("/other")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dep.Main != main {
		t.Error("records loaded before a new RunMain keep their entry")
	}

	late := g.NewModule("/late", nil)
	if _, err := late.Require("/dep"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if late.Main != nil {
		t.Error("a record loaded directly is not stamped")
	}
	if _, err := late.Require("/late"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := late.Children[0].Main; got != other {
		t.Errorf("new record Main = %v, want the latest entry", got)
	}
}

func TestRunMain_IndependentGraphs(t *testing.T) {
	t.Parallel()

	a := newFakeSystem(map[string]body{"/a": nil}).graph()
	b := newFakeSystem(map[string]body{"/b": nil}).graph()

	ma, err := a.RunMain("/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Main() != nil {
		t.Error("entry reference leaked across graphs")
	}
	if a.Main() != ma {
		t.Error("graph a lost its entry")
	}
}

func TestRunMain_ResolveFailure(t *testing.T) {
	t.Parallel()

	g := newFakeSystem(nil).graph()
	m, err := g.RunMain("/nope")
	if err == nil {
		t.Fatal("expected error")
	}
	if m != nil || g.Main() != nil {
		t.Error("failed resolve must not publish an entry")
	}
}

func TestModule_Resolve(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem(map[string]body{"/x": nil})
	g := sys.graph()
	root := g.NewModule("/root", nil)

	got, err := root.Resolve("/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/x" {
		t.Errorf("Resolve = %q, want /x", got)
	}
	if sys.loads["/x"] != 0 || len(root.Children) != 0 {
		t.Error("Resolve must not load or construct")
	}
}
