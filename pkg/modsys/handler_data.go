// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"encoding/json"
	"fmt"

	"github.com/invowk/modsys/pkg/modgraph"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// LoadJSON assigns the parsed JSON document as the module's exports.
func LoadJSON(s *System, m *modgraph.Module, filename string) error {
	data, err := s.readFile(filename)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to parse JSON %s: %w", filename, err)
	}
	m.Exports = v
	return nil
}

// LoadCUE evaluates a CUE file and assigns the concrete result as exports.
func LoadCUE(s *System, m *modgraph.Module, filename string) error {
	data, err := s.readFile(filename)
	if err != nil {
		return err
	}

	value := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return fmt.Errorf("failed to compile CUE %s: %s", filename, cueerrors.Details(err, nil))
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("CUE module %s is not concrete: %s", filename, cueerrors.Details(err, nil))
	}

	var v any
	if err := value.Decode(&v); err != nil {
		return fmt.Errorf("failed to decode CUE %s: %w", filename, err)
	}
	m.Exports = v
	return nil
}

// LoadTOML decodes a TOML document into a map and assigns it as exports.
func LoadTOML(s *System, m *modgraph.Module, filename string) error {
	data, err := s.readFile(filename)
	if err != nil {
		return err
	}
	v := map[string]any{}
	if err := toml.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to parse TOML %s: %w", filename, err)
	}
	m.Exports = v
	return nil
}

// LoadYAML decodes a YAML document and assigns it as exports.
func LoadYAML(s *System, m *modgraph.Module, filename string) error {
	data, err := s.readFile(filename)
	if err != nil {
		return err
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to parse YAML %s: %w", filename, err)
	}
	m.Exports = v
	return nil
}

func (s *System) readFile(filename string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	return data, nil
}
