// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

// tomlRootKey wraps exports that are not a table, since a TOML document
// must be one.
const tomlRootKey = "exports"

func parseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case formatJSON, formatYAML, formatTOML:
		return f, nil
	case "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: json, yaml, toml)", format)
	}
}

// encodeExports renders a printable exports value.
func encodeExports(v any, format string) (string, error) {
	switch format {
	case formatYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode YAML: %w", err)
		}
		return string(out), nil
	case formatTOML:
		table, ok := v.(map[string]any)
		if !ok {
			table = map[string]any{tomlRootKey: v}
		}
		out, err := toml.Marshal(table)
		if err != nil {
			return "", fmt.Errorf("failed to encode TOML: %w", err)
		}
		return string(out), nil
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode JSON: %w", err)
		}
		return string(out) + "\n", nil
	}
}
