package oad

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-kit/log/level"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultMaxIter  = 10
	defaultAtol     = 1e-10
	defaultRtol     = 1e-10
	aitkenMinFactor = 0.1
	aitkenMaxFactor = 1.5
)

// NonlinearSolver converges the variables of a group.
type NonlinearSolver interface {
	Solve(g *Group) error
	String() string
}

// RunOnce runs the children once, in order.
type RunOnce struct{}

// Solve implements the NonlinearSolver interface.
func (RunOnce) Solve(g *Group) error {
	return g.runSequence()
}

func (RunOnce) String() string {
	return "RunOnce"
}

// Criteria are the stopping criteria shared by the iterative solvers.
type Criteria struct {
	MaxIter          int
	Atol, Rtol       float64
	ErrOnNonConverge bool
	IPrint           int // 0: silent, 1: summary, 2: every iteration (also with general.verbose)
}

func (c Criteria) withDefaults() Criteria {
	if c.MaxIter <= 0 {
		c.MaxIter = defaultMaxIter
	}
	if c.Atol <= 0 {
		c.Atol = defaultAtol
	}
	if c.Rtol <= 0 {
		c.Rtol = defaultRtol
	}
	return c
}

// converged checks the criteria and logs the iteration.
func (c Criteria) converged(g *Group, solver string, iter int, norm, norm0 float64) bool {
	g.record(solver, iter, norm)
	if c.IPrint > 1 || oadConfig().verbose {
		level.Debug(logger).Log("subsys", "solver", "solver", solver, "group", g.path, "iter", iter, "residual", norm)
	}
	done := norm < c.Atol || norm/norm0 < c.Rtol
	if done && c.IPrint > 0 {
		level.Info(logger).Log("subsys", "solver", "solver", solver, "group", g.path, "status", "converged", "iter", iter, "residual", norm)
	}
	return done
}

func (c Criteria) failed(g *Group, solver string, residual float64) error {
	err := &ConvergenceError{Solver: solver, Group: g.path, Iterations: c.MaxIter, Residual: residual}
	if c.ErrOnNonConverge {
		return err
	}
	level.Warn(logger).Log("subsys", "solver", "solver", solver, "group", g.path, "message", err.Error())
	return nil
}

// NonlinearBlockGS iterates Gauss-Seidel passes over the children until the outputs settle.
type NonlinearBlockGS struct {
	Criteria
	UseAitken bool
}

// NewNonlinearBlockGS returns a Gauss-Seidel solver.
func NewNonlinearBlockGS(maxIter int, atol, rtol float64, errOnNonConverge bool) *NonlinearBlockGS {
	return &NonlinearBlockGS{Criteria: Criteria{MaxIter: maxIter, Atol: atol, Rtol: rtol, ErrOnNonConverge: errOnNonConverge}}
}

func (s *NonlinearBlockGS) String() string {
	return "NLBGS"
}

// Solve implements the NonlinearSolver interface.
func (s *NonlinearBlockGS) Solve(g *Group) error {
	c := s.withDefaults()
	prev := g.vector(g.outputs)
	delta := make([]float64, len(prev))
	var prevDelta []float64
	theta := 1.
	var norm, norm0 float64
	for iter := 1; iter <= c.MaxIter; iter++ {
		if err := g.runSequence(); err != nil {
			return err
		}
		cur := g.vector(g.outputs)
		floats.SubTo(delta, cur, prev)
		if s.UseAitken && prevDelta != nil {
			dd := make([]float64, len(delta))
			floats.SubTo(dd, delta, prevDelta)
			if den := floats.Dot(dd, dd); den > 0 {
				theta *= 1 - floats.Dot(dd, delta)/den
				theta = math.Max(aitkenMinFactor, math.Min(aitkenMaxFactor, theta))
			}
			floats.AddScaledTo(cur, prev, theta, delta)
			g.setVector(g.outputs, cur)
		}
		norm = floats.Norm(delta, 2)
		if iter == 1 {
			norm0 = norm
			if norm0 == 0 {
				norm0 = 1
			}
		}
		if c.converged(g, s.String(), iter, norm, norm0) {
			return nil
		}
		prev = cur
		prevDelta = append(prevDelta[:0], delta...)
	}
	return c.failed(g, s.String(), norm)
}

// NonlinearBlockJacobi evaluates every child from the previous iterate.
type NonlinearBlockJacobi struct {
	Criteria
}

func (s *NonlinearBlockJacobi) String() string {
	return "NLBJ"
}

// Solve implements the NonlinearSolver interface.
func (s *NonlinearBlockJacobi) Solve(g *Group) error {
	c := s.withDefaults()
	prev := g.vector(g.outputs)
	delta := make([]float64, len(prev))
	var norm, norm0 float64
	for iter := 1; iter <= c.MaxIter; iter++ {
		snapshot := g.state.clone()
		for i := range g.children {
			if err := g.runChild(i, snapshot, g.state); err != nil {
				return err
			}
		}
		cur := g.vector(g.outputs)
		floats.SubTo(delta, cur, prev)
		norm = floats.Norm(delta, 2)
		if iter == 1 {
			norm0 = math.Max(norm, 1e-300)
		}
		if c.converged(g, s.String(), iter, norm, norm0) {
			return nil
		}
		prev = cur
	}
	return c.failed(g, s.String(), norm)
}

// Newton solves the coupling residual G(x) - x = 0, where G is one Gauss-Seidel pass,
// with a finite difference Jacobian.
type Newton struct {
	Criteria
	Step float64 // finite difference step, gonum's default if zero
}

func (s *Newton) String() string {
	return "Newton"
}

// Solve implements the NonlinearSolver interface.
func (s *Newton) Solve(g *Group) error {
	c := s.withDefaults()
	if len(g.coupling) == 0 {
		return g.runSequence()
	}
	var evalErr error
	residual := func(r, x []float64) {
		g.setVector(g.coupling, x)
		if err := g.runSequence(); err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return
		}
		floats.SubTo(r, g.vector(g.coupling), x)
	}
	x := g.vector(g.coupling)
	n := len(x)
	r := make([]float64, n)
	jac := mat.NewDense(n, n, nil)
	var dx mat.VecDense
	var norm, norm0 float64
	for iter := 1; iter <= c.MaxIter; iter++ {
		residual(r, x)
		if evalErr != nil {
			return evalErr
		}
		norm = floats.Norm(r, 2)
		if iter == 1 {
			norm0 = math.Max(norm, 1e-300)
		}
		if c.converged(g, s.String(), iter, norm, norm0) {
			// Leave the state consistent with the converged iterate.
			residual(r, x)
			return evalErr
		}
		fd.Jacobian(jac, residual, x, &fd.JacobianSettings{Formula: fd.Forward, Step: s.Step, OriginValue: r})
		if evalErr != nil {
			return evalErr
		}
		negR := mat.NewVecDense(n, nil)
		negR.ScaleVec(-1, mat.NewVecDense(n, r))
		if err := dx.SolveVec(jac, negR); err != nil {
			return fmt.Errorf("newton step in `%s`: %w", g.path, err)
		}
		for i := 0; i < n; i++ {
			x[i] += dx.AtVec(i)
		}
	}
	residual(r, x)
	if evalErr != nil {
		return evalErr
	}
	return c.failed(g, s.String(), norm)
}

// SolverConfig is the declarative form of a nonlinear solver.
type SolverConfig struct {
	Type             string  `mapstructure:"type" yaml:"type"`
	MaxIter          int     `mapstructure:"maxiter" yaml:"maxiter" validate:"gte=0"`
	Atol             float64 `mapstructure:"atol" yaml:"atol" validate:"gte=0"`
	Rtol             float64 `mapstructure:"rtol" yaml:"rtol" validate:"gte=0"`
	ErrOnNonConverge bool    `mapstructure:"err_on_non_converge" yaml:"err_on_non_converge"`
	UseAitken        bool    `mapstructure:"use_aitken" yaml:"use_aitken"`
	IPrint           int     `mapstructure:"iprint" yaml:"iprint"`
	Step             float64 `mapstructure:"step" yaml:"step" validate:"gte=0"`
}

// SolverFromConfig returns the solver described by the configuration.
func SolverFromConfig(conf SolverConfig) (NonlinearSolver, error) {
	crit := Criteria{MaxIter: conf.MaxIter, Atol: conf.Atol, Rtol: conf.Rtol, ErrOnNonConverge: conf.ErrOnNonConverge, IPrint: conf.IPrint}
	switch strings.ToLower(strings.TrimSpace(conf.Type)) {
	case "", "run_once", "runonce":
		return RunOnce{}, nil
	case "nlbgs", "nonlinear_block_gs", "gauss_seidel":
		return &NonlinearBlockGS{Criteria: crit, UseAitken: conf.UseAitken}, nil
	case "nlbj", "nonlinear_block_jacobi", "jacobi":
		return &NonlinearBlockJacobi{Criteria: crit}, nil
	case "newton":
		return &Newton{Criteria: crit, Step: conf.Step}, nil
	default:
		return nil, fmt.Errorf("%w: unknown nonlinear solver `%s`", ErrMalformedConfig, conf.Type)
	}
}
