// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestExtension_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  Extension
		want bool
	}{
		{".lua", true},
		{".tar.gz", true},
		{"lua", false},
		{".", false},
		{"", false},
		{"./lua", false},
		{". lua", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.ext), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.ext.IsValid()
			if isValid != tt.want {
				t.Errorf("Extension(%q).IsValid() = %v, want %v", tt.ext, isValid, tt.want)
			}
			if !tt.want {
				if len(errs) == 0 {
					t.Fatalf("Extension(%q).IsValid() returned no errors", tt.ext)
				}
				if !errors.Is(errs[0], ErrInvalidExtension) {
					t.Errorf("error should wrap ErrInvalidExtension, got: %v", errs[0])
				}
			}
		})
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level LogLevel
		want  bool
	}{
		{LogLevelDebug, true},
		{LogLevelInfo, true},
		{LogLevelWarn, true},
		{LogLevelError, true},
		{"", false},
		{"DEBUG", false},
		{"trace", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.level.IsValid()
			if isValid != tt.want {
				t.Errorf("LogLevel(%q).IsValid() = %v, want %v", tt.level, isValid, tt.want)
			}
			if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidLogLevel)) {
				t.Errorf("error should wrap ErrInvalidLogLevel, got: %v", errs)
			}
		})
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"bad extension", func(c *Config) { c.Extensions = append(c.Extensions, "txt") }, ErrInvalidExtension},
		{"default not listed", func(c *Config) { c.Extensions = []Extension{".json"} }, ErrDefaultExtensionNotListed},
		{"empty descriptor", func(c *Config) { c.DescriptorFile = "" }, ErrInvalidFileName},
		{"modules dir with separator", func(c *Config) { c.ModulesDir = "a/b" }, ErrInvalidFileName},
		{"index dot-dot", func(c *Config) { c.IndexName = ".." }, ErrInvalidFileName},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)

			isValid, errs := cfg.IsValid()
			if tt.wantErr == nil {
				if !isValid {
					t.Errorf("unexpected errors: %v", errs)
				}
				return
			}
			if isValid {
				t.Fatal("expected config to be invalid")
			}
			var cfgErr *InvalidConfigError
			if !errors.As(errs[0], &cfgErr) {
				t.Fatalf("expected *InvalidConfigError, got %T", errs[0])
			}
			if !errors.Is(errs[0], ErrInvalidConfig) {
				t.Error("error should wrap ErrInvalidConfig")
			}
			found := false
			for _, fe := range cfgErr.FieldErrors {
				if errors.Is(fe, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("field errors %v do not contain %v", cfgErr.FieldErrors, tt.wantErr)
			}
		})
	}
}

func TestInvalidConfigError_Message(t *testing.T) {
	t.Parallel()

	single := &InvalidConfigError{FieldErrors: []error{&InvalidLogLevelError{Value: "x"}}}
	if got := single.Error(); got != `invalid config: invalid log level "x" (valid: debug, info, warn, error)` {
		t.Errorf("unexpected message: %s", got)
	}

	multi := &InvalidConfigError{FieldErrors: []error{ErrInvalidExtension, ErrInvalidFileName}}
	if got := multi.Error(); got != "invalid config: 2 field error(s)" {
		t.Errorf("unexpected message: %s", got)
	}
}
