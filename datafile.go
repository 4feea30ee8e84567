package oad

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type dataEntry struct {
	Value       any    `yaml:"value"`
	Units       string `yaml:"units,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type dataFile struct {
	Variables map[string]dataEntry `yaml:"variables"`
}

// ReadVariables reads a YAML variable file.
func ReadVariables(path string) (VariableList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseVariables(data)
}

// ParseVariables parses the content of a YAML variable file:
//
//	variables:
//	  data:TLAR:range: {value: 2750, units: NM}
//	  data:geometry:wing:span_ratios: {value: [0.3, 1.0]}
func ParseVariables(data []byte) (VariableList, error) {
	var file dataFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("could not parse variables: %w", err)
	}
	vars := make(VariableList, len(file.Variables))
	for name, entry := range file.Variables {
		val, err := toFloats(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("variable `%s`: %w", name, err)
		}
		vars.Add(Variable{Name: name, Value: val, Units: entry.Units, Description: entry.Description, IsInput: true})
	}
	return vars, nil
}

// WriteVariables writes the variables as a YAML variable file, sorted by name.
func WriteVariables(path string, vars VariableList) error {
	data, err := MarshalVariables(vars)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// MarshalVariables returns the YAML form of the variables.
func MarshalVariables(vars VariableList) ([]byte, error) {
	file := dataFile{Variables: make(map[string]dataEntry, len(vars))}
	for name, v := range vars {
		entry := dataEntry{Units: v.Units, Description: v.Description}
		if len(v.Value) == 1 {
			entry.Value = v.Value[0]
		} else {
			entry.Value = v.Value
		}
		file.Variables[name] = entry
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toFloats(raw any) ([]float64, error) {
	if raw == nil {
		return nil, fmt.Errorf("no value")
	}
	items, err := cast.ToSliceE(raw)
	if err != nil {
		items = []any{raw}
	}
	vals := make([]float64, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("no value at index %d", i)
		}
		if vals[i], err = cast.ToFloat64E(item); err != nil {
			return nil, err
		}
	}
	return vals, nil
}
