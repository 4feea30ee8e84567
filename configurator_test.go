package oad

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/floats/scalar"
)

func childNames(m ModelConfig) []string {
	var names []string
	for _, child := range m.Children {
		names = append(names, child.Name)
	}
	return names
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "sellar.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Title != "Sellar" {
		t.Fatalf("title: got %q", cfg.Title)
	}
	if exp := filepath.Join("testdata", "sellar_inputs.yml"); cfg.InputFile != exp {
		t.Fatalf("input file: got %s exp %s", cfg.InputFile, exp)
	}
	if exp := filepath.Join("testdata", "outputs.yml"); cfg.OutputFile != exp {
		t.Fatalf("output file: got %s exp %s", cfg.OutputFile, exp)
	}
	if diff := cmp.Diff([]string{"cycle", "obj"}, childNames(cfg.Model)); diff != "" {
		t.Fatalf("model children mismatch (-want +got):\n%s", diff)
	}
	cycle := cfg.Model.Children[0]
	if diff := cmp.Diff([]string{"d1", "d2"}, childNames(cycle)); diff != "" {
		t.Fatalf("cycle children mismatch (-want +got):\n%s", diff)
	}
	expSolver := &SolverConfig{Type: "nlbgs", MaxIter: 50, Atol: 1e-12, Rtol: 1e-12, ErrOnNonConverge: true}
	if diff := cmp.Diff(expSolver, cycle.Solver); diff != "" {
		t.Fatalf("solver mismatch (-want +got):\n%s", diff)
	}
	if cycle.Children[1].ID != "test.sellar.d2" {
		t.Fatalf("unexpected identifier %s", cycle.Children[1].ID)
	}
	if cfg.Driver.Type != "optimizer" || cfg.Driver.MaxIter != 100 {
		t.Fatalf("driver: %+v", cfg.Driver)
	}
	if len(cfg.Optimization.DesignVariables) != 1 || *cfg.Optimization.DesignVariables[0].Upper != 10 {
		t.Fatalf("design variables: %+v", cfg.Optimization.DesignVariables)
	}
	if cfg.Optimization.Constraints[0].Upper != nil || *cfg.Optimization.Constraints[0].Lower != 3.16 {
		t.Fatalf("constraints: %+v", cfg.Optimization.Constraints)
	}
	if _, err := LoadConfig(filepath.Join("testdata", "missing.yml")); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestParseConfigOrder(t *testing.T) {
	// Declaration order is the execution order, whatever the key order.
	cfg, err := ParseConfig([]byte(`
model:
  zeta: {id: test.sellar.d2}
  alpha: {id: test.sellar.d1}
  mid:
    nonlinear_solver: newton
    omega: {id: test.sellar.obj}
`))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, childNames(cfg.Model)); diff != "" {
		t.Fatalf("order not kept (-want +got):\n%s", diff)
	}
	if cfg.Model.Children[2].Solver.Type != "newton" {
		t.Fatalf("scalar solver not read: %+v", cfg.Model.Children[2].Solver)
	}
	if !cfg.Model.IsGroup() || cfg.Model.Children[0].IsGroup() {
		t.Fatal("leaves and groups mixed up")
	}
}

func TestParseConfigOptions(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
model:
  scaled:
    id: test.scaled
    factor: 3
    names: [a, b]
`))
	if err != nil {
		t.Fatal(err)
	}
	exp := map[string]any{"factor": 3, "names": []any{"a", "b"}}
	if diff := cmp.Diff(exp, cfg.Model.Children[0].Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("OAD_TITLE", "from env")
	t.Setenv("OAD_DRIVER_MAXITER", "42")
	cfg, err := ParseConfig([]byte("title: file\ndriver: {type: optimizer}\nmodel:\n  a: {id: x}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Title != "from env" || cfg.Driver.MaxIter != 42 {
		t.Fatalf("environment not applied: %q %d", cfg.Title, cfg.Driver.MaxIter)
	}
}

func TestParseConfigErrors(t *testing.T) {
	for _, tt := range []struct {
		name, yml string
	}{
		{"no model", "title: x\n"},
		{"leaf model", "model: {id: x}\n"},
		{"scalar child", "model:\n  a: 3\n"},
		{"list child", "model:\n  a: [1, 2]\n"},
		{"empty identifier", "model:\n  a: {id: ''}\n"},
		{"dotted name", "model:\n  a.b: {id: x}\n"},
		{"bad solver", "model:\n  nonlinear_solver: [1]\n  a: {id: x}\n"},
		{"bad connection", "model:\n  connections: [{source: a}]\n  a: {id: x}\n"},
		{"bad driver", "driver: {type: genetic}\nmodel:\n  a: {id: x}\n"},
		{"unnamed design variable", "optimization: {design_variables: [{lower: 1}]}\nmodel:\n  a: {id: x}\n"},
		{"two objectives", "optimization: {objective: [{name: a}, {name: b}]}\nmodel:\n  a: {id: x}\n"},
		{"invalid yaml", "model: [\n"},
	} {
		if _, err := ParseConfig([]byte(tt.yml)); !errors.Is(err, ErrMalformedConfig) {
			t.Fatalf("%s: expected ErrMalformedConfig, got %v", tt.name, err)
		}
	}
}

func TestLoadProblemSellar(t *testing.T) {
	p, err := LoadProblem(filepath.Join("testdata", "sellar.yml"), newTestRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ReadInputFile(); err != nil {
		t.Fatal(err)
	}
	if err := p.RunModel(); err != nil {
		t.Fatal(err)
	}
	if obj, _ := p.Scalar("obj"); !scalar.EqualWithinAbs(obj, sellarObj, 1e-6) {
		t.Fatalf("obj: got %f exp %f", obj, sellarObj)
	}
	d, ok := p.Driver.(*OptimizationDriver)
	if !ok {
		t.Fatalf("expected an optimization driver, got %T", p.Driver)
	}
	if d.Objective.Name != "obj" || d.MaxIter != 100 || len(d.Constraints) != 1 {
		t.Fatalf("driver not configured: %+v", d)
	}
	if _, ok := p.Model.Child("cycle").(*Group).Solver.(*NonlinearBlockGS); !ok {
		t.Fatal("the cycle solver was not configured")
	}
}

func TestParseConfigSubmodelsCase(t *testing.T) {
	cfg, err := ParseConfig([]byte("submodels:\n  Service.Wing: Provider.Area\n  service.fuselage: ''\nmodel:\n  s: {id: Service.Wing}\n"))
	if err != nil {
		t.Fatal(err)
	}
	exp := map[string]string{"Service.Wing": "Provider.Area", "service.fuselage": ""}
	if diff := cmp.Diff(exp, cfg.Submodels); diff != "" {
		t.Fatalf("submodels mismatch (-want +got):\n%s", diff)
	}

	reg := NewRegistry()
	reg.MustRegisterSubmodel("Service.Wing", provider("Provider.Legacy", true))
	reg.MustRegisterSubmodel("Service.Wing", provider("Provider.Area", false))
	reg.MustRegisterSubmodel("service.fuselage", provider("p1", true))
	p, err := BuildProblem(cfg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Model.Child("s").(namedComponent).name; got != "Provider.Area" {
		t.Fatalf("selected provider: got %s", got)
	}

	if _, err := ParseConfig([]byte("submodels: [a, b]\nmodel:\n  s: {id: x}\n")); !errors.Is(err, ErrMalformedConfig) {
		t.Fatalf("expected a malformed submodels section, got %v", err)
	}
}
