package models

import (
	"fmt"
	"strings"

	"github.com/aerodesign/oad"
)

const (
	engineRubber  = "rubber"
	engineGeneric = "generic"
)

// Propulsion computes the cruise performance of the engines. The engine is the parametric
// rubber engine, a generic engine or one of the known references, and may be switched by
// the `engine` option.
type Propulsion struct {
	model  string
	preset Engine
}

// NewPropulsion returns the propulsion component for the engine model.
func NewPropulsion(model string) (*Propulsion, error) {
	model = strings.ToLower(strings.TrimSpace(model))
	p := &Propulsion{model: model}
	switch model {
	case engineRubber, engineGeneric:
	default:
		engine, err := EngineFromString(model)
		if err != nil {
			return nil, err
		}
		p.preset = engine
	}
	return p, nil
}

// Setup implements the oad.Component interface.
func (p *Propulsion) Setup(io *oad.IO) error {
	io.AddInput(varMach, 0.78, "")
	io.AddInput(varAltitude, 35000, "ft")
	io.AddInput(varThrRate, 0.8, "")
	io.AddInput(varEngines, 2, "")
	switch p.model {
	case engineRubber:
		io.AddInput(varMTOThrust, 120000, "N")
		io.AddInput(varBPR, 5, "")
	case engineGeneric:
		io.AddInput(varMTOThrust, 120000, "N")
		io.AddInput(varGenSFC, 1.6e-5, "kg/N/s")
	default:
		// The reference engine sets the takeoff thrust used by the weight estimation.
		io.AddOutput(varMTOThrust, 120000, "N")
	}
	io.AddOutput(varSFC, 1.6e-5, "kg/N/s")
	io.AddOutput(varMaxThrust, 50000, "N")
	return nil
}

// engine returns the engine described by the inputs.
func (p *Propulsion) engine(in oad.Values) Engine {
	switch p.model {
	case engineRubber:
		return &RubberEngine{SeaLevelThrust: in.Scalar(varMTOThrust), BypassRatio: in.Scalar(varBPR)}
	case engineGeneric:
		return NewGenericEngine(in.Scalar(varMTOThrust), in.Scalar(varGenSFC))
	}
	return p.preset
}

// Compute implements the oad.Component interface.
func (p *Propulsion) Compute(in, out oad.Values) error {
	count := in.Scalar(varEngines)
	if count < 1 {
		return fmt.Errorf("invalid engine count %f", count)
	}
	engine := p.engine(in)
	if p.preset != nil {
		out.SetScalar(varMTOThrust, engine.MaxThrust(NewAtmosphere(0), 0))
	}
	// Altitude is read in feet.
	atm := NewAtmosphere(in.Scalar(varAltitude) * 0.3048)
	mach := in.Scalar(varMach)
	out.SetScalar(varSFC, engine.SFC(atm, mach, in.Scalar(varThrRate)))
	out.SetScalar(varMaxThrust, count*engine.MaxThrust(atm, mach))
	return nil
}
