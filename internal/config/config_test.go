// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/modsys/internal/issue"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// isolatedOptions returns LoadOptions that cannot pick up a real user config.
func isolatedOptions(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{
		ConfigDirPath: filepath.Join(t.TempDir(), "cfg"),
		BaseDir:       t.TempDir(),
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	wantExt := []string{".lua", ".json", ".cue", ".toml", ".yaml", ".yml", ".sh", ".wasm"}
	if !slices.Equal(cfg.ExtensionNames(), wantExt) {
		t.Errorf("extensions = %v, want %v", cfg.ExtensionNames(), wantExt)
	}
	if cfg.DefaultExtension != ".lua" {
		t.Errorf("default extension = %q, want .lua", cfg.DefaultExtension)
	}
	if cfg.DescriptorFile != "package.json" || cfg.ModulesDir != "node_modules" || cfg.IndexName != "index" {
		t.Errorf("unexpected file names: %+v", cfg)
	}
	if cfg.EvictOnError {
		t.Error("expected evict_on_error to default to false")
	}
	if cfg.Log.Level != LogLevelInfo {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("default config is invalid: %v", errs)
	}
}

func TestConfigDir_Override(t *testing.T) {
	SetConfigDirOverride("/tmp/modsys-test")
	t.Cleanup(Reset)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if dir != "/tmp/modsys-test" {
		t.Errorf("ConfigDir() = %s, want /tmp/modsys-test", dir)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux-specific")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().LoadWithSource(context.Background(), isolatedOptions(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected no source file, got %q", path)
	}
	if cfg.ModulesDir != "node_modules" {
		t.Errorf("modules dir = %q, want node_modules", cfg.ModulesDir)
	}
}

func TestLoad_LookupOrder(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	dirFile := filepath.Join(opts.ConfigDirPath, "config.cue")
	localFile := filepath.Join(opts.BaseDir, LocalConfigFile)
	explicitFile := filepath.Join(t.TempDir(), "explicit.cue")

	writeFile(t, localFile, `modules_dir: "local_modules"`)
	cfg, path, err := NewProvider().LoadWithSource(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != localFile || cfg.ModulesDir != "local_modules" {
		t.Errorf("got %q from %q, want local_modules from %q", cfg.ModulesDir, path, localFile)
	}

	writeFile(t, dirFile, `modules_dir: "dir_modules"`)
	cfg, path, err = NewProvider().LoadWithSource(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != dirFile || cfg.ModulesDir != "dir_modules" {
		t.Errorf("config dir file should win over local file, got %q from %q", cfg.ModulesDir, path)
	}

	writeFile(t, explicitFile, `modules_dir: "explicit_modules"`)
	opts.ConfigFilePath = explicitFile
	cfg, path, err = NewProvider().LoadWithSource(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != explicitFile || cfg.ModulesDir != "explicit_modules" {
		t.Errorf("explicit file should win, got %q from %q", cfg.ModulesDir, path)
	}
}

func TestLoad_FileMergesOverDefaults(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "config.cue")
	writeFile(t, opts.ConfigFilePath, `
extensions: [".json", ".lua"]
default_extension: ".json"
evict_on_error: true
log: level: "debug"
`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{".json", ".lua"}; !slices.Equal(cfg.ExtensionNames(), want) {
		t.Errorf("extensions = %v, want %v", cfg.ExtensionNames(), want)
	}
	if cfg.DefaultExtension != ".json" {
		t.Errorf("default extension = %q", cfg.DefaultExtension)
	}
	if !cfg.EvictOnError {
		t.Error("expected evict_on_error true")
	}
	if cfg.Log.Level != LogLevelDebug {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.DescriptorFile != "package.json" {
		t.Errorf("unset fields should keep defaults, got descriptor %q", cfg.DescriptorFile)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MODSYS_MODULES_DIR", "vendor_modules")
	t.Setenv("MODSYS_LOG_LEVEL", "warn")

	cfg, err := NewProvider().Load(context.Background(), isolatedOptions(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ModulesDir != "vendor_modules" {
		t.Errorf("modules dir = %q, want vendor_modules", cfg.ModulesDir)
	}
	if cfg.Log.Level != LogLevelWarn {
		t.Errorf("log level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantOp  string
	}{
		{"syntax error", `modules_dir: "unterminated`, "load configuration"},
		{"unknown field", `container_engine: "docker"`, "load configuration"},
		{"bad extension", `extensions: ["lua"]`, "load configuration"},
		{"bad log level", `log: level: "trace"`, "load configuration"},
		{"default not listed", "extensions: [\".json\"]\ndefault_extension: \".lua\"", "validate configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := isolatedOptions(t)
			opts.ConfigFilePath = filepath.Join(t.TempDir(), "config.cue")
			writeFile(t, opts.ConfigFilePath, tt.content)

			_, err := NewProvider().Load(context.Background(), opts)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *issue.ActionableError, got %T: %v", err, err)
			}
			if ae.Operation != tt.wantOp {
				t.Errorf("operation = %q, want %q", ae.Operation, tt.wantOp)
			}
			if ae.Issue() == nil || ae.Issue().Id() != issue.ConfigLoadFailedId {
				t.Errorf("issue = %d, want the configuration catalog entry", ae.IssueID)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "missing.cue")

	_, err := NewProvider().Load(context.Background(), opts)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T: %v", err, err)
	}
	if len(ae.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
	if ae.IssueID != issue.ConfigLoadFailedId {
		t.Errorf("issue = %d, want %d", ae.IssueID, issue.ConfigLoadFailedId)
	}
	if ae.Resource != opts.ConfigFilePath {
		t.Errorf("resource = %q, want %q", ae.Resource, opts.ConfigFilePath)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProvider().Load(ctx, isolatedOptions(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ModulesDir = "deps"
	cfg.EvictOnError = true

	opts := isolatedOptions(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "config.cue")
	writeFile(t, opts.ConfigFilePath, GenerateCUE(cfg))

	loaded, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if loaded.ModulesDir != "deps" || !loaded.EvictOnError {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if !slices.Equal(loaded.ExtensionNames(), cfg.ExtensionNames()) {
		t.Errorf("extensions = %v, want %v", loaded.ExtensionNames(), cfg.ExtensionNames())
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	got, err := CreateDefaultConfig(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(data), `modules_dir: "node_modules"`) {
		t.Errorf("unexpected content:\n%s", data)
	}

	writeFile(t, path, "// edited\n")
	if _, err := CreateDefaultConfig(path, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "// edited\n" {
		t.Error("existing config must not be overwritten without force")
	}

	if _, err := CreateDefaultConfig(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) == "// edited\n" {
		t.Error("force should overwrite the existing config")
	}
}
