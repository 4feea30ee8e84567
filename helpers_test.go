package oad

import (
	"math"
	"testing"
)

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("The code did not panic")
		}
	}()
	f()
}

// Sellar problem: the classic two-discipline coupled case.
// With x = 1 and z = (5, 2), y1 = 25.58830237 and y2 = 12.05848815.
const (
	sellarY1  = 25.58830237
	sellarY2  = 12.05848815
	sellarObj = 28.58830817
)

type sellarDis1 struct{}

func (sellarDis1) Setup(io *IO) error {
	io.AddInput("x", 1, "")
	io.AddArrayInput("z", []float64{5, 2}, "")
	io.AddInput("y2", 1, "")
	io.AddOutput("y1", 1, "")
	return nil
}

func (sellarDis1) Compute(in, out Values) error {
	z := in.Array("z")
	out.SetScalar("y1", z[0]*z[0]+z[1]+in.Scalar("x")-0.2*in.Scalar("y2"))
	return nil
}

type sellarDis2 struct{}

func (sellarDis2) Setup(io *IO) error {
	io.AddArrayInput("z", []float64{5, 2}, "")
	io.AddInput("y1", 1, "")
	io.AddOutput("y2", 1, "")
	return nil
}

func (sellarDis2) Compute(in, out Values) error {
	z := in.Array("z")
	out.SetScalar("y2", math.Sqrt(math.Abs(in.Scalar("y1")))+z[0]+z[1])
	return nil
}

type sellarObjective struct{}

func (sellarObjective) Setup(io *IO) error {
	io.AddInput("x", 1, "")
	io.AddArrayInput("z", []float64{5, 2}, "")
	io.AddInput("y1", 1, "")
	io.AddInput("y2", 1, "")
	io.AddOutput("obj", 1, "")
	return nil
}

func (sellarObjective) Compute(in, out Values) error {
	x, z := in.Scalar("x"), in.Array("z")
	out.SetScalar("obj", x*x+z[1]+in.Scalar("y1")+math.Exp(-in.Scalar("y2")))
	return nil
}

// newSellar returns the Sellar disciplines in a group driven by the solver.
func newSellar(t *testing.T, solver NonlinearSolver) *Group {
	g := NewGroup("model", nil)
	cycle := NewGroup("cycle", solver)
	if err := cycle.Add("d1", sellarDis1{}); err != nil {
		t.Fatal(err)
	}
	if err := cycle.Add("d2", sellarDis2{}); err != nil {
		t.Fatal(err)
	}
	if err := g.Add("cycle", cycle); err != nil {
		t.Fatal(err)
	}
	if err := g.Add("obj", sellarObjective{}); err != nil {
		t.Fatal(err)
	}
	return g
}

// funcComponent is a scalar component defined by a function.
type funcComponent struct {
	inputs, outputs []string
	units           string
	fn              func(in, out Values) error
}

func (c *funcComponent) Setup(io *IO) error {
	for _, name := range c.inputs {
		io.AddInput(name, 1, c.units)
	}
	for _, name := range c.outputs {
		io.AddOutput(name, 1, c.units)
	}
	return nil
}

func (c *funcComponent) Compute(in, out Values) error {
	return c.fn(in, out)
}

// newTestRegistry returns a registry holding the Sellar disciplines.
func newTestRegistry(t *testing.T) *Registry {
	reg := NewRegistry()
	for id, comp := range map[string]Component{"test.sellar.d1": sellarDis1{}, "test.sellar.d2": sellarDis2{}, "test.sellar.obj": sellarObjective{}} {
		comp := comp
		if err := reg.Register(Registration{ID: id, Domain: DomainOther, Factory: func(*Registry, Options) (Component, error) { return comp, nil }}); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}
