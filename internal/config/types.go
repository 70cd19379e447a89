// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// LogLevelDebug enables resolution and load tracing.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn reports only warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError reports only errors.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidExtension is the sentinel error wrapped by InvalidExtensionError.
	ErrInvalidExtension = errors.New("invalid extension")
	// ErrInvalidFileName is the sentinel error wrapped by InvalidFileNameError.
	ErrInvalidFileName = errors.New("invalid file name")
	// ErrInvalidLogLevel is the sentinel error wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrDefaultExtensionNotListed is returned when default_extension is absent from extensions.
	ErrDefaultExtensionNotListed = errors.New("default extension is not in the extension list")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Extension is a module file extension including the leading dot (".lua").
	Extension string

	// InvalidExtensionError is returned when an Extension value is malformed.
	// It wraps ErrInvalidExtension for errors.Is() compatibility.
	InvalidExtensionError struct {
		Value Extension
	}

	// FileName is a single path element such as "package.json" or "node_modules".
	FileName string

	// InvalidFileNameError is returned when a FileName is empty or contains a separator.
	InvalidFileNameError struct {
		Field string
		Value FileName
	}

	// LogLevel is the minimum level written by the CLI logger.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the module system configuration.
	Config struct {
		// Extensions is the probe order of registered extensions.
		Extensions []Extension `json:"extensions" mapstructure:"extensions"`
		// DefaultExtension selects the handler for files with an unregistered extension.
		DefaultExtension Extension `json:"default_extension" mapstructure:"default_extension"`
		// DescriptorFile is the package descriptor read from directory candidates.
		DescriptorFile FileName `json:"descriptor_file" mapstructure:"descriptor_file"`
		// ModulesDir is the ancestor directory searched for bare specifiers.
		ModulesDir FileName `json:"modules_dir" mapstructure:"modules_dir"`
		// IndexName is the base name tried inside directory candidates.
		IndexName FileName `json:"index_name" mapstructure:"index_name"`
		// EvictOnError removes a record from the cache when its load fails.
		EvictOnError bool `json:"evict_on_error" mapstructure:"evict_on_error"`
		// Log configures the CLI logger.
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		// Level is one of debug, info, warn, error.
		Level LogLevel `json:"level" mapstructure:"level"`
	}
)

// String returns the string representation of the Extension.
func (e Extension) String() string { return string(e) }

// IsValid returns whether the Extension starts with a dot and is a single path element.
func (e Extension) IsValid() (bool, []error) {
	s := string(e)
	if len(s) < 2 || !strings.HasPrefix(s, ".") || strings.ContainsAny(s, `/\ `) {
		return false, []error{&InvalidExtensionError{Value: e}}
	}
	return true, nil
}

// Error implements the error interface for InvalidExtensionError.
func (e *InvalidExtensionError) Error() string {
	return fmt.Sprintf("invalid extension %q: must start with '.' and contain no separators", e.Value)
}

// Unwrap returns ErrInvalidExtension for errors.Is() compatibility.
func (e *InvalidExtensionError) Unwrap() error { return ErrInvalidExtension }

// String returns the string representation of the FileName.
func (n FileName) String() string { return string(n) }

// isValid reports whether n is a non-empty single path element.
func (n FileName) isValid() bool {
	s := strings.TrimSpace(string(n))
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(string(n), `/\`)
}

// Error implements the error interface for InvalidFileNameError.
func (e *InvalidFileNameError) Error() string {
	return fmt.Sprintf("invalid %s %q: must be a single non-empty path element", e.Field, e.Value)
}

// Unwrap returns ErrInvalidFileName for errors.Is() compatibility.
func (e *InvalidFileNameError) Unwrap() error { return ErrInvalidFileName }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid returns whether the Config has valid fields. Every extension must
// be well formed, the default extension must be one of them, and the three
// file names must be single path elements.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, ext := range c.Extensions {
		if valid, fieldErrs := ext.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.DefaultExtension.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	} else if len(c.Extensions) > 0 && !slices.Contains(c.Extensions, c.DefaultExtension) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrDefaultExtensionNotListed, c.DefaultExtension))
	}

	for _, f := range []struct {
		field string
		value FileName
	}{
		{"descriptor_file", c.DescriptorFile},
		{"modules_dir", c.ModulesDir},
		{"index_name", c.IndexName},
	} {
		if !f.value.isValid() {
			errs = append(errs, &InvalidFileNameError{Field: f.field, Value: f.value})
		}
	}

	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// ExtensionNames returns the extensions as plain strings.
func (c Config) ExtensionNames() []string {
	out := make([]string, len(c.Extensions))
	for i, ext := range c.Extensions {
		out[i] = string(ext)
	}
	return out
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Extensions: []Extension{
			".lua", ".json", ".cue", ".toml", ".yaml", ".yml", ".sh", ".wasm",
		},
		DefaultExtension: ".lua",
		DescriptorFile:   "package.json",
		ModulesDir:       "node_modules",
		IndexName:        "index",
		EvictOnError:     false,
		Log: LogConfig{
			Level: LogLevelInfo,
		},
	}
}
