package oad

import (
	"fmt"
	"math"
	"sort"

	"github.com/spf13/cast"
)

// OptionSpec declares an option accepted by a registered system.
type OptionSpec struct {
	Name        string
	Default     any
	Description string
	Required    bool
}

// Options are the resolved option values handed to a Factory.
type Options map[string]any

// ResolveOptions checks the given options against the declared ones and fills in the defaults.
func ResolveOptions(specs []OptionSpec, given map[string]any) (Options, error) {
	declared := make(map[string]OptionSpec, len(specs))
	for _, spec := range specs {
		declared[spec.Name] = spec
	}
	// Sort the given keys so the reported error is deterministic.
	keys := make([]string, 0, len(given))
	for key := range given {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := declared[key]; !ok {
			return nil, fmt.Errorf("%w `%s`", ErrUnknownOption, key)
		}
	}
	opts := make(Options, len(specs))
	for _, spec := range specs {
		if val, ok := given[spec.Name]; ok {
			opts[spec.Name] = val
			continue
		}
		if spec.Required {
			return nil, fmt.Errorf("%w `%s`", ErrMissingOption, spec.Name)
		}
		opts[spec.Name] = spec.Default
	}
	return opts, nil
}

// GetFloat64 returns the named option as a float64.
func (o Options) GetFloat64(name string) (float64, error) {
	v, ok := o[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w `%s`", ErrMissingOption, name)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("option `%s`: %w", name, err)
	}
	return f, nil
}

// GetInt returns the named option as an int. Fractional and out of range values are rejected.
func (o Options) GetInt(name string) (int, error) {
	v, ok := o[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w `%s`", ErrMissingOption, name)
	}
	switch n := v.(type) {
	case uint, uint64:
		if u, _ := cast.ToUint64E(n); u > math.MaxInt {
			return 0, fmt.Errorf("option `%s`: %v overflows an int", name, v)
		}
	case float32, float64, string:
		f, err := cast.ToFloat64E(n)
		if err != nil {
			break
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("option `%s`: %v is not an integer", name, v)
		}
		if f < math.MinInt || f >= -math.MinInt {
			return 0, fmt.Errorf("option `%s`: %v overflows an int", name, v)
		}
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("option `%s`: %w", name, err)
	}
	return i, nil
}

// GetString returns the named option as a string.
func (o Options) GetString(name string) (string, error) {
	v, ok := o[name]
	if !ok || v == nil {
		return "", fmt.Errorf("%w `%s`", ErrMissingOption, name)
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("option `%s`: %w", name, err)
	}
	return str, nil
}

// GetBool returns the named option as a bool.
func (o Options) GetBool(name string) (bool, error) {
	v, ok := o[name]
	if !ok || v == nil {
		return false, fmt.Errorf("%w `%s`", ErrMissingOption, name)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("option `%s`: %w", name, err)
	}
	return b, nil
}

// GetStringSlice returns the named option as a list of strings; a string is split on spaces.
// An unset option is an empty list.
func (o Options) GetStringSlice(name string) ([]string, error) {
	v := o[name]
	if v == nil {
		return nil, nil
	}
	strs, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("option `%s`: %w", name, err)
	}
	return strs, nil
}
