package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

const maxRK4Steps = 10000000

// Integrable defines something which can be integrated, i.e. has a state vector.
// Func must return a new slice at each call.
type Integrable interface {
	GetState() []float64                   // Get the latest state of this integrable.
	SetState(t float64, s []float64)       // Set the state s of a given time t.
	Func(t float64, s []float64) []float64 // ODE function from time t and state s, must return a new state.
	Stop(t float64) bool                   // Return whether to stop the integration from time t.
}

// RK4 is a fixed step fourth order Runge-Kutta integrator.
type RK4 struct {
	X0         float64
	StepSize   float64
	Integrator Integrable
}

// NewRK4 returns a new RK4 integrator instance.
func NewRK4(x0, stepSize float64, inte Integrable) *RK4 {
	return &RK4{X0: x0, StepSize: stepSize, Integrator: inte}
}

// Solve integrates until Stop returns true and returns the number of steps and the final time.
func (r *RK4) Solve() (uint64, float64, error) {
	if r.StepSize <= 0 {
		return 0, r.X0, fmt.Errorf("invalid step size %f", r.StepSize)
	}
	h := r.StepSize
	t := r.X0
	var iterNum uint64
	state := r.Integrator.GetState()
	tmp := make([]float64, len(state))
	for !r.Integrator.Stop(t) {
		if iterNum >= maxRK4Steps {
			return iterNum, t, errors.New("too many integration steps")
		}
		k1 := r.Integrator.Func(t, state)
		floats.AddScaledTo(tmp, state, h/2, k1)
		k2 := r.Integrator.Func(t+h/2, tmp)
		floats.AddScaledTo(tmp, state, h/2, k2)
		k3 := r.Integrator.Func(t+h/2, tmp)
		floats.AddScaledTo(tmp, state, h, k3)
		k4 := r.Integrator.Func(t+h, tmp)
		next := make([]float64, len(state))
		for i := range state {
			next[i] = state[i] + h/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
		}
		t += h
		iterNum++
		r.Integrator.SetState(t, next)
		state = r.Integrator.GetState()
	}
	return iterNum, t, nil
}
