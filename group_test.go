package oad

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/floats/scalar"
)

func setupProblem(t *testing.T, g *Group) *Problem {
	p := NewProblem(g)
	if err := p.Setup(); err != nil {
		t.Fatalf("setup failed: %s", err)
	}
	return p
}

func TestGroupPromotion(t *testing.T) {
	g := newSellar(t, NewNonlinearBlockGS(50, 1e-12, 1e-12, true))
	p := setupProblem(t, g)
	if diff := cmp.Diff([]string{"x", "z"}, p.InputVariables().Names()); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"obj", "y1", "y2"}, p.OutputVariables().Names()); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}
	cycle := g.Child("cycle").(*Group)
	if diff := cmp.Diff([]string{"y2"}, cycle.Coupling()); diff != "" {
		t.Fatalf("coupling mismatch (-want +got):\n%s", diff)
	}
	if len(g.Coupling()) != 0 {
		t.Fatalf("the root group has no feedback, got %v", g.Coupling())
	}
	exp := []string{"model.cycle", "model.cycle.d1", "model.cycle.d2", "model.obj"}
	if diff := cmp.Diff(exp, g.Systems()); diff != "" {
		t.Fatalf("systems mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"cycle", "obj"}, g.Children()); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if g.Child("nope") != nil {
		t.Fatal("unknown child should be nil")
	}
}

func TestGroupOutputConflict(t *testing.T) {
	g := NewGroup("model", nil)
	g.Add("d1", sellarDis1{})
	g.Add("d1bis", sellarDis1{})
	err := NewProblem(g).Setup()
	if !errors.Is(err, ErrOutputConflict) {
		t.Fatalf("expected ErrOutputConflict, got %v", err)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Key != "model.d1bis" {
		t.Fatalf("the faulty system should be named, got %v", err)
	}
}

func TestGroupDuplicateChild(t *testing.T) {
	g := NewGroup("model", nil)
	if err := g.Add("d1", sellarDis1{}); err != nil {
		t.Fatal(err)
	}
	if err := g.Add("d1", sellarDis2{}); !errors.Is(err, ErrMalformedConfig) {
		t.Fatalf("expected ErrMalformedConfig, got %v", err)
	}
	if err := g.Add("nil", nil); !errors.Is(err, ErrMalformedConfig) {
		t.Fatalf("expected ErrMalformedConfig, got %v", err)
	}
}

func TestGroupMalformedComponent(t *testing.T) {
	g := NewGroup("model", nil)
	g.Add("bad", &funcComponent{inputs: []string{"a"}, outputs: []string{"a"}})
	if err := NewProblem(g).Setup(); !errors.Is(err, ErrMalformedComponent) {
		t.Fatalf("expected ErrMalformedComponent, got %v", err)
	}
}

func TestGroupConnections(t *testing.T) {
	g := NewGroup("model", nil)
	g.Add("src", &funcComponent{inputs: []string{"a"}, outputs: []string{"b"}, fn: func(in, out Values) error {
		out.SetScalar("b", 2*in.Scalar("a"))
		return nil
	}})
	g.Add("dst", &funcComponent{inputs: []string{"c"}, outputs: []string{"d"}, fn: func(in, out Values) error {
		out.SetScalar("d", in.Scalar("c")+1)
		return nil
	}})
	g.Connect("b", "c")
	p := setupProblem(t, g)
	if diff := cmp.Diff([]string{"a"}, p.InputVariables().Names()); diff != "" {
		t.Fatalf("a connected input is not a problem input (-want +got):\n%s", diff)
	}
	p.SetVal("a", 3)
	if err := p.RunModel(); err != nil {
		t.Fatal(err)
	}
	if d, _ := p.Scalar("d"); d != 7 {
		t.Fatalf("d: got %f exp 7", d)
	}

	for _, conn := range []Connection{{"nope", "c"}, {"b", "nope"}, {"b", "d"}} {
		g.connections = nil
		g.Connect(conn.Source, conn.Target)
		if err := NewProblem(g).Setup(); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("connection %+v: expected a configuration error, got %v", conn, err)
		}
	}
}

func TestGroupUnits(t *testing.T) {
	g := NewGroup("model", nil)
	g.Add("src", &funcComponent{inputs: []string{"a"}, outputs: []string{"mass"}, units: "t", fn: func(in, out Values) error {
		out.SetScalar("mass", in.Scalar("a"))
		return nil
	}})
	var seen float64
	g.Add("dst", &funcComponent{inputs: []string{"mass"}, outputs: []string{"twice"}, units: "kg", fn: func(in, out Values) error {
		seen = in.Scalar("mass")
		out.SetScalar("twice", 2*seen)
		return nil
	}})
	p := setupProblem(t, g)
	if err := p.SetValWithUnits("a", "kg", 2500); err != nil {
		t.Fatal(err)
	}
	if err := p.RunModel(); err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(seen, 2500, 1e-9) {
		t.Fatalf("converted input: got %f exp 2500 kg", seen)
	}
	if u, _ := p.Units("mass"); u != "t" {
		t.Fatalf("mass is stored in the producer units, got %s", u)
	}

	bad := NewGroup("model", nil)
	bad.Add("src", &funcComponent{outputs: []string{"mass"}, units: "t"})
	bad.Add("dst", &funcComponent{inputs: []string{"mass"}, units: "m"})
	if err := NewProblem(bad).Setup(); !errors.Is(err, ErrIncompatibleUnits) {
		t.Fatalf("expected ErrIncompatibleUnits, got %v", err)
	}
}

func TestGroupNonFiniteOutput(t *testing.T) {
	g := NewGroup("model", nil)
	g.Add("nan", &funcComponent{inputs: []string{"a"}, outputs: []string{"b"}, fn: func(in, out Values) error {
		out.SetScalar("b", math.NaN())
		return nil
	}})
	p := setupProblem(t, g)
	if err := p.RunModel(); err == nil {
		t.Fatal("a NaN output should fail the run")
	}
}

func TestProblemNotSetup(t *testing.T) {
	p := NewProblem(newSellar(t, nil))
	if err := p.RunModel(); !errors.Is(err, ErrNotSetup) {
		t.Fatalf("expected ErrNotSetup, got %v", err)
	}
	if _, err := p.Val("x"); !errors.Is(err, ErrNotSetup) {
		t.Fatalf("expected ErrNotSetup, got %v", err)
	}
	if err := NewProblem(nil).Setup(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestGroupSystemsReadOnly(t *testing.T) {
	g := newSellar(t, nil)
	exp := []string{"model.cycle", "model.cycle.d1", "model.cycle.d2", "model.obj"}
	if diff := cmp.Diff(exp, g.Systems()); diff != "" {
		t.Fatalf("systems mismatch (-want +got):\n%s", diff)
	}
	cycle := g.Child("cycle").(*Group)
	if cycle.path != "cycle" {
		t.Fatalf("listing the systems changed the path of a subgroup to %s", cycle.path)
	}
	setupProblem(t, g)
	if cycle.path != "model.cycle" {
		t.Fatalf("setup did not set the path of a subgroup: %s", cycle.path)
	}
}
