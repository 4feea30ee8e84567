package oad

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-kit/log/level"
)

// Component is an explicit computation unit: it declares its variables in Setup and
// computes its outputs from its inputs.
type Component interface {
	Setup(io *IO) error
	Compute(in, out Values) error
}

// Connection links an output to an input of a different name.
type Connection struct {
	Source string `mapstructure:"source" yaml:"source" validate:"required"`
	Target string `mapstructure:"target" yaml:"target" validate:"required"`
}

type subsystem struct {
	name string
	comp Component
	io   IO
}

// Group runs its children in declaration order and promotes all their variables.
// A Group is itself a Component, so groups nest.
type Group struct {
	name        string
	path        string
	children    []*subsystem
	Solver      NonlinearSolver
	connections []Connection

	// Resolved by Setup.
	isSetup   bool
	producers map[string]int
	aliases   map[string]string
	specs     map[string]VariableSpec // first declaration of every variable, in state units
	inputs    []string
	outputs   []string
	coupling  []string
	state     Values
	cases     chan<- Case
}

// NewGroup returns an empty group. A nil solver runs the children once.
func NewGroup(name string, solver NonlinearSolver) *Group {
	if solver == nil {
		solver = RunOnce{}
	}
	return &Group{name: name, path: name, Solver: solver}
}

// Name returns the name of the group.
func (g *Group) Name() string {
	return g.name
}

// Add appends a child; children run in the order they are added.
func (g *Group) Add(name string, c Component) error {
	if c == nil {
		return fmt.Errorf("%w: nil component `%s`", ErrMalformedConfig, name)
	}
	for _, child := range g.children {
		if child.name == name {
			return fmt.Errorf("%w: `%s` is declared twice in `%s`", ErrMalformedConfig, name, g.path)
		}
	}
	g.children = append(g.children, &subsystem{name: name, comp: c})
	g.isSetup = false
	return nil
}

// Connect feeds the target input from the source output.
func (g *Group) Connect(source, target string) {
	g.connections = append(g.connections, Connection{source, target})
	g.isSetup = false
}

// Children returns the names of the direct children, in execution order.
func (g *Group) Children() []string {
	names := make([]string, len(g.children))
	for i, child := range g.children {
		names[i] = child.name
	}
	return names
}

// Child returns the named direct child, or nil.
func (g *Group) Child(name string) Component {
	for _, child := range g.children {
		if child.name == name {
			return child.comp
		}
	}
	return nil
}

// Systems returns the dotted paths of all the systems of the tree, depth first.
func (g *Group) Systems() []string {
	return g.systems(g.path)
}

func (g *Group) systems(prefix string) []string {
	var paths []string
	for _, child := range g.children {
		childPath := prefix + "." + child.name
		paths = append(paths, childPath)
		if sub, ok := child.comp.(*Group); ok {
			paths = append(paths, sub.systems(childPath)...)
		}
	}
	return paths
}

// Coupling returns the variables fed back from the same or a later child.
func (g *Group) Coupling() []string {
	return g.coupling
}

// Setup declares the children, resolves the promotions and connections and
// declares the group's own inputs and outputs.
func (g *Group) Setup(io *IO) error {
	g.producers = make(map[string]int)
	g.aliases = make(map[string]string)
	g.specs = make(map[string]VariableSpec)
	g.inputs, g.outputs, g.coupling = nil, nil, nil

	for i, child := range g.children {
		childPath := g.path + "." + child.name
		if sub, ok := child.comp.(*Group); ok {
			sub.path = childPath
			sub.cases = g.cases
		}
		child.io = IO{}
		if err := child.comp.Setup(&child.io); err != nil {
			return configErr(childPath, err)
		}
		if err := child.io.Err(); err != nil {
			return configErr(childPath, err)
		}
		for _, out := range child.io.Outputs() {
			if prev, exists := g.producers[out.Name]; exists {
				return configErr(childPath, fmt.Errorf("%w: `%s` is written by `%s` and `%s`", ErrOutputConflict, out.Name, g.children[prev].name, child.name))
			}
			g.producers[out.Name] = i
			g.specs[out.Name] = out
			g.outputs = append(g.outputs, out.Name)
		}
	}

	declaredInputs := make(map[string]bool)
	for _, child := range g.children {
		for _, in := range child.io.Inputs() {
			declaredInputs[in.Name] = true
		}
	}
	for _, conn := range g.connections {
		if _, ok := g.producers[conn.Source]; !ok {
			return configErr(g.path, fmt.Errorf("%w: connection source `%s` is not an output", ErrUnknownVariable, conn.Source))
		}
		if !declaredInputs[conn.Target] {
			return configErr(g.path, fmt.Errorf("%w: connection target `%s` is not an input", ErrUnknownVariable, conn.Target))
		}
		if _, ok := g.producers[conn.Target]; ok {
			return configErr(g.path, fmt.Errorf("%w: connection target `%s` is also an output", ErrOutputConflict, conn.Target))
		}
		if prev, ok := g.aliases[conn.Target]; ok && prev != conn.Source {
			return configErr(g.path, fmt.Errorf("%w: `%s` is connected to `%s` and `%s`", ErrOutputConflict, conn.Target, prev, conn.Source))
		}
		g.aliases[conn.Target] = conn.Source
	}

	isCoupling := make(map[string]bool)
	for i, child := range g.children {
		childPath := g.path + "." + child.name
		for _, in := range child.io.Inputs() {
			src := g.resolve(in.Name)
			if prodIdx, internal := g.producers[src]; internal {
				if _, err := ConvertUnits(1, g.specs[src].Units, in.Units); err != nil {
					return configErr(childPath, fmt.Errorf("input `%s`: %w", in.Name, err))
				}
				if prodIdx >= i && !isCoupling[src] {
					isCoupling[src] = true
					g.coupling = append(g.coupling, src)
				}
				continue
			}
			if prev, known := g.specs[src]; known {
				if _, err := ConvertUnits(1, prev.Units, in.Units); err != nil {
					return configErr(childPath, fmt.Errorf("input `%s`: %w", in.Name, err))
				}
				if prev.Description == "" && in.Description != "" {
					prev.Description = in.Description
					g.specs[src] = prev
				}
				continue
			}
			g.specs[src] = in
			g.inputs = append(g.inputs, src)
		}
	}
	sort.Strings(g.inputs)

	if _, ok := g.Solver.(RunOnce); ok && len(g.coupling) > 0 {
		level.Warn(logger).Log("subsys", "graph", "group", g.path, "coupling", len(g.coupling), "message", "feedback variables with a run-once solver")
	}

	g.state = make(Values, len(g.specs))
	for name, spec := range g.specs {
		g.state.Set(name, spec.Default)
	}
	for _, name := range g.inputs {
		io.add(g.specs[name])
	}
	for _, name := range g.outputs {
		io.add(g.specs[name])
	}
	g.isSetup = true
	return io.Err()
}

// resolve returns the name under which an input is stored in the group state.
func (g *Group) resolve(name string) string {
	if src, ok := g.aliases[name]; ok {
		return src
	}
	return name
}

// Compute copies the inputs into the group state, runs the solver and copies the outputs out.
func (g *Group) Compute(in, out Values) error {
	if !g.isSetup {
		return fmt.Errorf("%w: group `%s`", ErrNotSetup, g.path)
	}
	for _, name := range g.inputs {
		if val, ok := in[name]; ok {
			g.state.Set(name, val)
		}
	}
	if err := g.Solver.Solve(g); err != nil {
		return err
	}
	for _, name := range g.outputs {
		out.Set(name, g.state[name])
	}
	return nil
}

// runChild evaluates one child, reading its inputs from `from` and writing its outputs to `to`.
func (g *Group) runChild(i int, from, to Values) error {
	child := g.children[i]
	childPath := g.path + "." + child.name
	in := make(Values, len(child.io.Inputs()))
	for _, spec := range child.io.Inputs() {
		src := g.resolve(spec.Name)
		val, err := convertAll(from[src], g.specs[src].Units, spec.Units)
		if err != nil {
			return fmt.Errorf("%s: input `%s`: %w", childPath, spec.Name, err)
		}
		in[spec.Name] = val
	}
	out := make(Values, len(child.io.Outputs()))
	for _, spec := range child.io.Outputs() {
		out.Set(spec.Name, from[spec.Name])
	}
	if err := child.comp.Compute(in, out); err != nil {
		return fmt.Errorf("%s: %w", childPath, err)
	}
	for _, spec := range child.io.Outputs() {
		val := out[spec.Name]
		for _, x := range val {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%s: output `%s` is not finite (%v)", childPath, spec.Name, val)
			}
		}
		to.Set(spec.Name, val)
	}
	return nil
}

// runSequence evaluates all children in order on the group state (one Gauss-Seidel pass).
func (g *Group) runSequence() error {
	for i := range g.children {
		if err := g.runChild(i, g.state, g.state); err != nil {
			return err
		}
	}
	return nil
}

// vector flattens the named variables of the state.
func (g *Group) vector(names []string) []float64 {
	var vec []float64
	for _, name := range names {
		vec = append(vec, g.state[name]...)
	}
	return vec
}

// setVector is the inverse of vector.
func (g *Group) setVector(names []string, vec []float64) {
	idx := 0
	for _, name := range names {
		n := len(g.state[name])
		g.state.Set(name, vec[idx:idx+n])
		idx += n
	}
}

// Val returns the value of a variable of the group state.
func (g *Group) Val(name string) ([]float64, error) {
	val, ok := g.state[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	return append([]float64(nil), val...), nil
}

// SetVal sets the value of a variable of the group state, in the units it is stored in.
func (g *Group) SetVal(name string, val []float64) error {
	if _, ok := g.state[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	g.state.Set(name, val)
	return nil
}

func (g *Group) record(source string, iter int, residual float64) {
	if g.cases == nil {
		return
	}
	g.cases <- Case{Source: g.path + "." + source, Iteration: iter, Residual: residual, Values: g.state.clone()}
}
