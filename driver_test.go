package oad

import (
	"context"
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func ptr(v float64) *float64 {
	return &v
}

// newParabola returns f = (x - 3)^2 + 1 and g = x.
func newParabola(t *testing.T) *Problem {
	g := NewGroup("model", nil)
	g.Add("parabola", &funcComponent{inputs: []string{"x"}, outputs: []string{"f", "g"}, fn: func(in, out Values) error {
		x := in.Scalar("x")
		out.SetScalar("f", (x-3)*(x-3)+1)
		out.SetScalar("g", x)
		return nil
	}})
	return setupProblem(t, g)
}

func TestOptimizationDriver(t *testing.T) {
	for _, method := range []string{"nelder-mead", "lbfgs", "bfgs", "cg"} {
		p := newParabola(t)
		d := &OptimizationDriver{
			Method:     method,
			MaxIter:    200,
			Tol:        1e-8,
			DesignVars: []DesignVar{{Name: "x", Lower: ptr(0), Upper: ptr(10)}},
			Objective:  Objective{Name: "f"},
		}
		p.Driver = d
		if err := p.RunDriver(context.Background()); err != nil {
			t.Fatalf("%s: %s", method, err)
		}
		if !scalar.EqualWithinAbs(d.Result.X["x"], 3, 1e-3) {
			t.Fatalf("%s: x got %f exp 3", method, d.Result.X["x"])
		}
		if !scalar.EqualWithinAbs(d.Result.Objective, 1, 1e-6) {
			t.Fatalf("%s: f got %f exp 1", method, d.Result.Objective)
		}
		if d.Result.Evaluations == 0 {
			t.Fatalf("%s: no evaluation counted", method)
		}
		// The model is left at the optimum.
		if x, _ := p.Scalar("x"); x != d.Result.X["x"] {
			t.Fatalf("%s: model not left at the optimum: %f", method, x)
		}
	}
}

func TestOptimizationDriverConstraint(t *testing.T) {
	p := newParabola(t)
	d := &OptimizationDriver{
		MaxIter:     500,
		Tol:         1e-12,
		DesignVars:  []DesignVar{{Name: "x", Lower: ptr(0), Upper: ptr(10)}},
		Objective:   Objective{Name: "f", Scaler: 1},
		Constraints: []Constraint{{Name: "g", Upper: ptr(2)}},
	}
	if err := d.Run(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(d.Result.X["x"], 2, 1e-2) {
		t.Fatalf("constrained optimum: x got %f exp 2", d.Result.X["x"])
	}
}

func TestOptimizationDriverBounds(t *testing.T) {
	p := newParabola(t)
	d := &OptimizationDriver{
		MaxIter:    500,
		DesignVars: []DesignVar{{Name: "x", Lower: ptr(5), Upper: ptr(10)}},
		Objective:  Objective{Name: "f"},
	}
	if err := d.Run(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if x := d.Result.X["x"]; x < 5 || !scalar.EqualWithinAbs(x, 5, 1e-2) {
		t.Fatalf("bounded optimum: x got %f exp 5", x)
	}
}

func TestOptimizationDriverErrors(t *testing.T) {
	p := newParabola(t)
	for _, d := range []*OptimizationDriver{
		{Objective: Objective{Name: "f"}},
		{DesignVars: []DesignVar{{Name: "f"}}, Objective: Objective{Name: "f"}},
		{DesignVars: []DesignVar{{Name: "x"}}, Objective: Objective{Name: "nope"}},
		{DesignVars: []DesignVar{{Name: "x", Lower: ptr(2), Upper: ptr(1)}}, Objective: Objective{Name: "f"}},
		{DesignVars: []DesignVar{{Name: "x"}}, Objective: Objective{Name: "f"}, Method: "simplex"},
	} {
		if err := d.Run(context.Background(), p); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%+v: expected a configuration error, got %v", d, err)
		}
	}
}

func TestOptimizationDriverCancel(t *testing.T) {
	p := newParabola(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &OptimizationDriver{DesignVars: []DesignVar{{Name: "x"}}, Objective: Objective{Name: "f"}}
	if err := d.Run(ctx, p); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
