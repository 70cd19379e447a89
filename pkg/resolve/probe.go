// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/afero"
)

// descriptorMainField is the only descriptor field the resolver reads.
const descriptorMainField = "main"

type (
	// ProbeKind identifies which check produced a Probe.
	ProbeKind int

	// Probe records a single filesystem check made while resolving.
	Probe struct {
		Kind  ProbeKind
		Path  string
		Found bool
	}

	// Tracer receives probes in the order they are made.
	Tracer func(Probe)
)

const (
	// ProbeFile is a regular-file check on a candidate path.
	ProbeFile ProbeKind = iota
	// ProbeModulesDir is a directory check on an ancestor modules directory.
	ProbeModulesDir
	// ProbeDescriptor is a regular-file check on a package descriptor.
	ProbeDescriptor
)

// String returns a short label for the probe kind.
func (k ProbeKind) String() string {
	switch k {
	case ProbeFile:
		return "file"
	case ProbeModulesDir:
		return "modules"
	case ProbeDescriptor:
		return "descriptor"
	default:
		return fmt.Sprintf("ProbeKind(%d)", int(k))
	}
}

// stat returns (nil, nil) when path does not exist.
func (r *Resolver) stat(path string) (os.FileInfo, error) {
	info, err := r.fs.Stat(path)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// isNotExist treats a non-directory path component the same as a missing entry.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func (r *Resolver) isFile(path string, kind ProbeKind) (bool, error) {
	info, err := r.stat(path)
	if err != nil {
		return false, err
	}
	ok := info != nil && info.Mode().IsRegular()
	r.trace(Probe{Kind: kind, Path: path, Found: ok})
	return ok, nil
}

func (r *Resolver) trace(p Probe) {
	if r.tracer != nil {
		r.tracer(p)
	}
}

// probeFile checks the exact candidate, then the candidate plus each
// registered extension in registration order.
func (r *Resolver) probeFile(candidate string) (string, error) {
	ok, err := r.isFile(candidate, ProbeFile)
	if err != nil || ok {
		return ifFound(candidate, ok), err
	}
	for _, ext := range r.extensions.Names() {
		path := candidate + ext
		ok, err := r.isFile(path, ProbeFile)
		if err != nil || ok {
			return ifFound(path, ok), err
		}
	}
	return "", nil
}

func ifFound(path string, ok bool) string {
	if ok {
		return path
	}
	return ""
}

// resolveFile runs the full file-resolution procedure on candidate:
// exact and extension probes, then the directory index, then the package
// descriptor's main entry.
func (r *Resolver) resolveFile(candidate string) (string, error) {
	if found, err := r.probeFile(candidate); err != nil || found != "" {
		return found, err
	}

	if found, err := r.probeFile(filepath.Join(candidate, r.indexName)); err != nil || found != "" {
		return found, err
	}

	return r.resolveDescriptor(candidate)
}

// resolveDescriptor consults <dir>/<descriptor> when present.
func (r *Resolver) resolveDescriptor(dir string) (string, error) {
	descPath := filepath.Join(dir, r.descriptorName)
	ok, err := r.isFile(descPath, ProbeDescriptor)
	if err != nil || !ok {
		return "", err
	}

	entry, err := r.readMain(descPath)
	if err != nil {
		return "", err
	}

	next := filepath.Join(dir, r.indexName)
	if entry != "" {
		target := filepath.Join(dir, entry)
		found, err := r.probeFile(target)
		if err != nil || found != "" {
			return found, err
		}
		next = filepath.Join(target, r.indexName)
	}
	return r.probeFile(next)
}

// readMain extracts the "main" field of a descriptor. JSON descriptors are
// valid CUE, so the CUE evaluator parses both. A missing, null or empty main
// yields "".
func (r *Resolver) readMain(path string) (string, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return "", err
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if value.Err() != nil {
		return "", &DescriptorError{Path: path, Err: value.Err()}
	}

	mainValue := value.LookupPath(cue.ParsePath(descriptorMainField))
	if !mainValue.Exists() || mainValue.IsNull() {
		return "", nil
	}
	entry, err := mainValue.String()
	if err != nil {
		return "", &DescriptorError{Path: path, Err: fmt.Errorf("field %q must be a string: %w", descriptorMainField, err)}
	}
	return entry, nil
}

// resolveModulesDir walks from start up to the filesystem root, trying
// <dir>/node_modules/<name> wherever the modules directory exists.
func (r *Resolver) resolveModulesDir(name, start string) (string, error) {
	dir := start
	for {
		modulesPath := filepath.Join(dir, r.modulesDir)
		info, err := r.stat(modulesPath)
		if err != nil {
			return "", err
		}
		isDir := info != nil && info.IsDir()
		r.trace(Probe{Kind: ProbeModulesDir, Path: modulesPath, Found: isDir})

		if isDir {
			found, err := r.resolveFile(filepath.Join(modulesPath, name))
			if err != nil || found != "" {
				return found, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
