package oad

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/go-kit/log/level"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

const defaultPenalty = 1e4

// DesignVar is a problem input the optimizer may change, within optional bounds.
type DesignVar struct {
	Name  string   `mapstructure:"name" yaml:"name" validate:"required"`
	Lower *float64 `mapstructure:"lower" yaml:"lower,omitempty"`
	Upper *float64 `mapstructure:"upper" yaml:"upper,omitempty"`
}

// Objective is the variable to minimize.
type Objective struct {
	Name   string  `mapstructure:"name" yaml:"name" validate:"required"`
	Scaler float64 `mapstructure:"scaler" yaml:"scaler,omitempty"`
}

// Constraint bounds a variable of the problem.
type Constraint struct {
	Name  string   `mapstructure:"name" yaml:"name" validate:"required"`
	Lower *float64 `mapstructure:"lower" yaml:"lower,omitempty"`
	Upper *float64 `mapstructure:"upper" yaml:"upper,omitempty"`
}

// OptimizationResult is the outcome of an optimization.
type OptimizationResult struct {
	X           map[string]float64
	Objective   float64
	Evaluations int
	Converged   bool
	Status      string
}

// OptimizationDriver minimizes the objective with gonum/optimize. Bounds are enforced by
// clamping plus a penalty, constraints by a quadratic exterior penalty.
type OptimizationDriver struct {
	Method      string // nelder-mead (default), lbfgs, bfgs, gradient, cg
	MaxIter     int
	Tol         float64
	Penalty     float64
	DesignVars  []DesignVar
	Objective   Objective
	Constraints []Constraint
	Result      *OptimizationResult
}

// MethodFromString returns the gonum method of the given name.
func MethodFromString(name string) (optimize.Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "nelder-mead", "neldermead", "cobyla":
		return &optimize.NelderMead{}, nil
	case "lbfgs":
		return &optimize.LBFGS{}, nil
	case "bfgs":
		return &optimize.BFGS{}, nil
	case "gradient":
		return &optimize.GradientDescent{}, nil
	case "cg":
		return &optimize.CG{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown optimization method `%s`", ErrMalformedConfig, name)
	}
}

func (d *OptimizationDriver) check(p *Problem) error {
	if len(d.DesignVars) == 0 {
		return fmt.Errorf("%w: no design variable", ErrMalformedConfig)
	}
	inputs := p.InputVariables()
	for _, dv := range d.DesignVars {
		v, ok := inputs[dv.Name]
		if !ok {
			return fmt.Errorf("%w: design variable `%s` is not a problem input", ErrUnknownVariable, dv.Name)
		}
		if len(v.Value) != 1 {
			return fmt.Errorf("%w: design variable `%s` is not a scalar", ErrMalformedConfig, dv.Name)
		}
		if dv.Lower != nil && dv.Upper != nil && *dv.Lower > *dv.Upper {
			return fmt.Errorf("%w: design variable `%s` has lower > upper", ErrMalformedConfig, dv.Name)
		}
	}
	if _, err := p.Scalar(d.Objective.Name); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	for _, c := range d.Constraints {
		if _, err := p.Scalar(c.Name); err != nil {
			return fmt.Errorf("constraint: %w", err)
		}
	}
	return nil
}

// normalized returns whether the design variable is optimized in [0, 1].
func (dv DesignVar) normalized() bool {
	return dv.Lower != nil && dv.Upper != nil && *dv.Upper > *dv.Lower
}

func (dv DesignVar) toValue(x float64) float64 {
	if dv.normalized() {
		return *dv.Lower + x*(*dv.Upper-*dv.Lower)
	}
	return x
}

func (dv DesignVar) fromValue(v float64) float64 {
	if dv.normalized() {
		return (v - *dv.Lower) / (*dv.Upper - *dv.Lower)
	}
	return v
}

// clamp returns the value within bounds and the violation.
func (dv DesignVar) clamp(v float64) (float64, float64) {
	if dv.Lower != nil && v < *dv.Lower {
		return *dv.Lower, *dv.Lower - v
	}
	if dv.Upper != nil && v > *dv.Upper {
		return *dv.Upper, v - *dv.Upper
	}
	return v, 0
}

func boundScale(b float64) float64 {
	if math.Abs(b) > 1e-12 {
		return math.Abs(b)
	}
	return 1
}

// violation returns the scaled violation of the constraint.
func (c Constraint) violation(v float64) float64 {
	if c.Upper != nil && v > *c.Upper {
		return (v - *c.Upper) / boundScale(*c.Upper)
	}
	if c.Lower != nil && v < *c.Lower {
		return (*c.Lower - v) / boundScale(*c.Lower)
	}
	return 0
}

// evaluate sets the design variables, runs the model and returns the penalized objective.
func (d *OptimizationDriver) evaluate(p *Problem, x []float64) (float64, error) {
	penalty := d.Penalty
	if penalty <= 0 {
		penalty = defaultPenalty
	}
	var pen float64
	for i, dv := range d.DesignVars {
		v, viol := dv.clamp(dv.toValue(x[i]))
		pen += viol * viol
		if err := p.Model.SetVal(dv.Name, []float64{v}); err != nil {
			return math.Inf(1), err
		}
	}
	if err := p.runModel(); err != nil {
		return math.Inf(1), err
	}
	obj, err := p.Scalar(d.Objective.Name)
	if err != nil {
		return math.Inf(1), err
	}
	scaler := d.Objective.Scaler
	if scaler == 0 {
		scaler = 1
	}
	for _, c := range d.Constraints {
		v, err := p.Scalar(c.Name)
		if err != nil {
			return math.Inf(1), err
		}
		viol := c.violation(v)
		pen += viol * viol
	}
	return obj*scaler + penalty*pen, nil
}

// driverRecorder stops the optimization when the context is done and records the iterations.
type driverRecorder struct {
	ctx  context.Context
	p    *Problem
	iter int
}

func (r *driverRecorder) Init() error {
	return r.ctx.Err()
}

func (r *driverRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op&optimize.MajorIteration != 0 {
		r.iter++
		r.p.record("driver", r.iter, loc.F)
	}
	return r.ctx.Err()
}

// Run implements the Driver interface.
func (d *OptimizationDriver) Run(ctx context.Context, p *Problem) error {
	if err := d.check(p); err != nil {
		return configErr("optimization", err)
	}
	method, err := MethodFromString(d.Method)
	if err != nil {
		return configErr("driver", err)
	}
	x0 := make([]float64, len(d.DesignVars))
	for i, dv := range d.DesignVars {
		v, _ := p.Scalar(dv.Name)
		v, _ = dv.clamp(v)
		x0[i] = dv.fromValue(v)
	}

	var lastErr error
	evals := 0
	f := func(x []float64) float64 {
		evals++
		val, err := d.evaluate(p, x)
		if err != nil {
			lastErr = err
		}
		return val
	}
	prob := optimize.Problem{Func: f}
	if _, gradientFree := method.(*optimize.NelderMead); !gradientFree {
		prob.Grad = func(grad, x []float64) {
			fd.Gradient(grad, f, x, &fd.Settings{Formula: fd.Central})
		}
	}
	settings := &optimize.Settings{
		MajorIterations: d.MaxIter,
		Recorder:        &driverRecorder{ctx: ctx, p: p},
	}
	if d.Tol > 0 {
		settings.GradientThreshold = d.Tol
		settings.Converger = &optimize.FunctionConverge{Absolute: d.Tol, Iterations: 50}
	}
	level.Info(logger).Log("subsys", "driver", "method", d.Method, "designVars", len(d.DesignVars), "constraints", len(d.Constraints))
	res, err := optimize.Minimize(prob, x0, settings, method)
	if res == nil {
		return fmt.Errorf("optimization: %w", err)
	}
	// Leave the model at the optimum.
	final, evalErr := d.evaluate(p, res.X)
	if evalErr != nil {
		return fmt.Errorf("optimization: %w", evalErr)
	}
	result := &OptimizationResult{X: make(map[string]float64, len(d.DesignVars)), Evaluations: evals, Status: res.Status.String()}
	for _, dv := range d.DesignVars {
		result.X[dv.Name], _ = p.Scalar(dv.Name)
	}
	result.Objective, _ = p.Scalar(d.Objective.Name)
	switch res.Status {
	case optimize.Success, optimize.FunctionThreshold, optimize.FunctionConvergence, optimize.GradientThreshold, optimize.StepConvergence, optimize.MethodConverge:
		result.Converged = true
	}
	d.Result = result
	level.Info(logger).Log("subsys", "driver", "status", result.Status, "objective", result.Objective, "penalized", final, "evaluations", evals)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if math.IsInf(res.F, 1) && lastErr != nil {
		return fmt.Errorf("optimization: %w", lastErr)
	}
	if err != nil && !result.Converged && res.Status != optimize.IterationLimit && res.Status != optimize.FunctionEvaluationLimit {
		return fmt.Errorf("optimization: %w", err)
	}
	return nil
}
