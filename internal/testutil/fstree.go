// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// MemFS returns an in-memory filesystem populated with files.
// Keys are absolute slash-separated paths, values are file contents.
// A key ending in "/" creates an empty directory.
func MemFS(t testing.TB, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	WriteTree(t, fsys, "", files)
	return fsys
}

// WriteTree writes files below root on fsys, creating parent directories.
// The test fails immediately if any write fails.
func WriteTree(t testing.TB, fsys afero.Fs, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			if err := fsys.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("failed to create directory %s: %v", path, err)
			}
			continue
		}
		if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", path, err)
		}
		if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// MustWriteTree writes files below a fresh temporary directory on the OS
// filesystem and returns the directory.
func MustWriteTree(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	// Resolve symlinks so canonical paths compare equal on macOS (/var -> /private/var).
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("failed to resolve temp dir %s: %v", root, err)
	}
	WriteTree(t, afero.NewOsFs(), resolved, files)
	return resolved
}

// MustReadFile reads path from the OS filesystem.
func MustReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
