package oad

import (
	"fmt"
	"sort"
	"strings"
)

// VariableSpec is a variable declaration made by a component.
type VariableSpec struct {
	Name        string
	Default     []float64
	Units       string
	Description string
	Output      bool
}

// IO collects the declarations of a component during Setup.
type IO struct {
	inputs  []VariableSpec
	outputs []VariableSpec
	names   map[string]bool
	err     error
}

func (io *IO) add(spec VariableSpec) {
	if io.names == nil {
		io.names = make(map[string]bool)
	}
	if io.err != nil {
		return
	}
	if strings.TrimSpace(spec.Name) == "" {
		io.err = fmt.Errorf("%w: empty variable name", ErrMalformedComponent)
		return
	}
	if io.names[spec.Name] {
		io.err = fmt.Errorf("%w: `%s` declared twice", ErrMalformedComponent, spec.Name)
		return
	}
	io.names[spec.Name] = true
	if spec.Output {
		io.outputs = append(io.outputs, spec)
	} else {
		io.inputs = append(io.inputs, spec)
	}
}

// AddInput declares a scalar input.
func (io *IO) AddInput(name string, def float64, units string) {
	io.add(VariableSpec{Name: name, Default: []float64{def}, Units: units})
}

// AddOutput declares a scalar output.
func (io *IO) AddOutput(name string, def float64, units string) {
	io.add(VariableSpec{Name: name, Default: []float64{def}, Units: units, Output: true})
}

// AddArrayInput declares an array input; its size is the one of the default.
func (io *IO) AddArrayInput(name string, def []float64, units string) {
	io.add(VariableSpec{Name: name, Default: append([]float64(nil), def...), Units: units})
}

// AddArrayOutput declares an array output; its size is the one of the default.
func (io *IO) AddArrayOutput(name string, def []float64, units string) {
	io.add(VariableSpec{Name: name, Default: append([]float64(nil), def...), Units: units, Output: true})
}

// Describe sets the description of a declared variable.
func (io *IO) Describe(name, desc string) {
	for i := range io.inputs {
		if io.inputs[i].Name == name {
			io.inputs[i].Description = desc
			return
		}
	}
	for i := range io.outputs {
		if io.outputs[i].Name == name {
			io.outputs[i].Description = desc
			return
		}
	}
}

// Inputs returns the declared inputs.
func (io *IO) Inputs() []VariableSpec {
	return io.inputs
}

// Outputs returns the declared outputs.
func (io *IO) Outputs() []VariableSpec {
	return io.outputs
}

// Err returns the first declaration error.
func (io *IO) Err() error {
	return io.err
}

// Values stores variable values by name.
type Values map[string][]float64

// Scalar returns the first item of the named variable, or zero if it is unknown.
func (v Values) Scalar(name string) float64 {
	if arr := v[name]; len(arr) > 0 {
		return arr[0]
	}
	return 0
}

// Array returns the named variable.
func (v Values) Array(name string) []float64 {
	return v[name]
}

// SetScalar sets a scalar variable.
func (v Values) SetScalar(name string, val float64) {
	if arr, ok := v[name]; ok && len(arr) == 1 {
		arr[0] = val
		return
	}
	v[name] = []float64{val}
}

// Set sets the named variable (the slice is copied).
func (v Values) Set(name string, val []float64) {
	v[name] = append([]float64(nil), val...)
}

// Has returns whether the variable is defined.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

func (v Values) clone() Values {
	c := make(Values, len(v))
	for name, val := range v {
		c[name] = append([]float64(nil), val...)
	}
	return c
}

// Variable is a named value with its metadata, as exchanged with data files.
type Variable struct {
	Name        string
	Value       []float64
	Units       string
	Description string
	IsInput     bool
}

func (v Variable) String() string {
	if len(v.Value) == 1 {
		return fmt.Sprintf("%s = %g %s", v.Name, v.Value[0], v.Units)
	}
	return fmt.Sprintf("%s = %v %s", v.Name, v.Value, v.Units)
}

// VariableList is a set of variables keyed by name.
type VariableList map[string]Variable

// Names returns the sorted names.
func (l VariableList) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add adds or replaces a variable.
func (l VariableList) Add(v Variable) {
	l[v.Name] = v
}

// Merge adds all the variables of other, replacing existing ones.
func (l VariableList) Merge(other VariableList) {
	for name, v := range other {
		l[name] = v
	}
}

// Inputs returns the input variables.
func (l VariableList) Inputs() VariableList {
	return l.filter(true)
}

// Outputs returns the output variables.
func (l VariableList) Outputs() VariableList {
	return l.filter(false)
}

func (l VariableList) filter(inputs bool) VariableList {
	sub := make(VariableList)
	for name, v := range l {
		if v.IsInput == inputs {
			sub[name] = v
		}
	}
	return sub
}
