package oad

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an identifier is not registered.
	ErrNotFound = errors.New("oad: identifier not registered")
	// ErrDuplicateID is returned when an identifier is registered twice without override.
	ErrDuplicateID = errors.New("oad: identifier already registered")
	// ErrMalformedRegistration is returned for registrations without ID or factory.
	ErrMalformedRegistration = errors.New("oad: malformed registration")
	// ErrConfiguration is the kind of every error reported while loading or building a problem.
	ErrConfiguration = errors.New("oad: configuration error")
	// ErrMalformedConfig is returned for configuration entries which cannot be understood.
	ErrMalformedConfig = errors.New("oad: malformed configuration entry")
	// ErrMalformedComponent is returned when a component declares its variables incorrectly.
	ErrMalformedComponent = errors.New("oad: malformed component")
	// ErrOutputConflict is returned when two systems write the same variable.
	ErrOutputConflict = errors.New("oad: variable is an output of several systems")
	// ErrUnknownOption is returned when an option is not declared by the component.
	ErrUnknownOption = errors.New("oad: unknown option")
	// ErrMissingOption is returned when a required option is not provided.
	ErrMissingOption = errors.New("oad: missing required option")
	// ErrNoSubmodel is returned when a service has no provider.
	ErrNoSubmodel = errors.New("oad: no submodel provider")
	// ErrTooManySubmodels is returned when a service has several providers and none is selected.
	ErrTooManySubmodels = errors.New("oad: several submodel providers and none is active")
	// ErrUnknownVariable is returned when a variable is not part of the problem.
	ErrUnknownVariable = errors.New("oad: unknown variable")
	// ErrIncompatibleUnits is returned when converting between units of different kinds.
	ErrIncompatibleUnits = errors.New("oad: incompatible units")
	// ErrNotConverged is returned by solvers which did not converge.
	ErrNotConverged = errors.New("oad: solver did not converge")
	// ErrNotSetup is returned when a problem is used before Setup.
	ErrNotSetup = errors.New("oad: problem is not set up")
)

// ConfigurationError is reported synchronously at load or build time.
// It matches ErrConfiguration with errors.Is and unwraps to its cause.
type ConfigurationError struct {
	Key string // configuration path of the faulty entry, e.g. "model.loop.weight"
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Key, e.Err)
}

// Unwrap returns the cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is makes every ConfigurationError match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErr(key string, err error) error {
	var cErr *ConfigurationError
	if errors.As(err, &cErr) {
		return err
	}
	return &ConfigurationError{Key: key, Err: err}
}

// ConvergenceError is returned by a solver which ran out of iterations.
type ConvergenceError struct {
	Solver     string
	Group      string
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: %s in group `%s` after %d iterations (residual %.3e)", ErrNotConverged, e.Solver, e.Group, e.Iterations, e.Residual)
}

// Unwrap returns ErrNotConverged.
func (e *ConvergenceError) Unwrap() error {
	return ErrNotConverged
}
