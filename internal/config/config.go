// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/invowk/modsys/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "modsys"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is the project-local config file looked up in the base directory.
	LocalConfigFile = "modsys.cue"
	// EnvPrefix prefixes environment overrides (MODSYS_MODULES_DIR, MODSYS_LOG_LEVEL).
	EnvPrefix = "MODSYS"

	// maxConfigFileSize bounds config files read into memory.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the modsys configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// newViper returns a Viper instance seeded with defaults and environment overrides.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("extensions", defaults.ExtensionNames())
	v.SetDefault("default_extension", defaults.DefaultExtension)
	v.SetDefault("descriptor_file", defaults.DescriptorFile)
	v.SetDefault("modules_dir", defaults.ModulesDir)
	v.SetDefault("index_name", defaults.IndexName)
	v.SetDefault("evict_on_error", defaults.EvictOnError)
	v.SetDefault("log.level", defaults.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. It returns the config and the file it came from, or
// "" when only defaults and environment overrides applied.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	resolvedPath, err := findConfigFile(opts)
	if err != nil {
		return nil, "", err
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.Wrap(err, "load configuration", resolvedPath).
				WithIssue(issue.ConfigLoadFailedId).
				Suggest(
					"Check that the file contains valid CUE syntax",
					"Verify the configuration values match the expected schema",
				)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.Wrap(errs[0], "validate configuration", resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			Suggest(
				"Extensions must start with '.', e.g. \".lua\"",
				"default_extension must be one of the listed extensions",
			)
	}

	return &cfg, resolvedPath, nil
}

// findConfigFile applies the lookup order: explicit file, then the config
// directory, then the local modsys.cue in the base directory.
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath), "load configuration", opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				Suggest("Verify the file path is correct")
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(cuePath) {
		return cuePath, nil
	}

	localPath := LocalConfigFile
	if opts.BaseDir != "" {
		localPath = filepath.Join(opts.BaseDir, LocalConfigFile)
	}
	if fileExists(localPath) {
		return localPath, nil
	}

	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. Fields are optional, so validation is
// not concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// formatCUEError flattens a CUE error list into one message per position.
func formatCUEError(err error, path string) error {
	details := strings.TrimSpace(cueerrors.Details(err, nil))
	return fmt.Errorf("invalid configuration in %s:\n%s", path, details)
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file to path, or to the config
// directory when path is empty. An existing file is left untouched unless
// force is set. It returns the path written.
func CreateDefaultConfig(path string, force bool) (string, error) {
	if path == "" {
		cfgDir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if !force && fileExists(path) {
		return path, nil
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// modsys configuration file\n\n")

	quoted := make([]string, len(cfg.Extensions))
	for i, ext := range cfg.Extensions {
		quoted[i] = fmt.Sprintf("%q", ext)
	}
	fmt.Fprintf(&sb, "extensions: [%s]\n", strings.Join(quoted, ", "))
	fmt.Fprintf(&sb, "default_extension: %q\n", cfg.DefaultExtension)
	fmt.Fprintf(&sb, "descriptor_file: %q\n", cfg.DescriptorFile)
	fmt.Fprintf(&sb, "modules_dir: %q\n", cfg.ModulesDir)
	fmt.Fprintf(&sb, "index_name: %q\n", cfg.IndexName)
	fmt.Fprintf(&sb, "evict_on_error: %v\n", cfg.EvictOnError)

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	return sb.String()
}
