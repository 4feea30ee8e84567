package models

import (
	"math"

	"github.com/aerodesign/oad"
)

// Submodel services of the weight breakdown.
const (
	ServiceWingWeight     = "service.weight.wing"
	ServiceFuselageWeight = "service.weight.fuselage"
)

// LegacyWingWeight is the default wing mass estimation, sensitive to the aspect ratio.
type LegacyWingWeight struct{}

// Setup implements the oad.Component interface.
func (LegacyWingWeight) Setup(io *oad.IO) error {
	io.AddInput(varMTOW, 70000, "kg")
	io.AddInput(varWingArea, 120, "m**2")
	io.AddInput(varAR, 9.5, "")
	io.AddOutput(varWingMass, 8000, "kg")
	return nil
}

// Compute implements the oad.Component interface.
func (LegacyWingWeight) Compute(in, out oad.Values) error {
	mtow, area, ar := in.Scalar(varMTOW), in.Scalar(varWingArea), in.Scalar(varAR)
	out.SetScalar(varWingMass, 0.76*math.Sqrt(math.Abs(mtow*area))*math.Pow(math.Abs(ar), 0.6))
	return nil
}

// AreaWingWeight estimates the wing mass from its area only.
type AreaWingWeight struct {
	density float64 // kg/m**2
}

// Setup implements the oad.Component interface.
func (AreaWingWeight) Setup(io *oad.IO) error {
	io.AddInput(varWingArea, 120, "m**2")
	io.AddOutput(varWingMass, 8000, "kg")
	return nil
}

// Compute implements the oad.Component interface.
func (w AreaWingWeight) Compute(in, out oad.Values) error {
	out.SetScalar(varWingMass, w.density*in.Scalar(varWingArea))
	return nil
}

// FuselageWeight estimates the fuselage mass from its wetted area.
type FuselageWeight struct{}

// Setup implements the oad.Component interface.
func (FuselageWeight) Setup(io *oad.IO) error {
	io.AddInput(varFuseWet, 400, "m**2")
	io.AddOutput(varFuseMass, 9000, "kg")
	return nil
}

// Compute implements the oad.Component interface.
func (FuselageWeight) Compute(in, out oad.Values) error {
	out.SetScalar(varFuseMass, 22.7*in.Scalar(varFuseWet))
	return nil
}

// propulsionWeight is the installed engine mass.
type propulsionWeight struct{}

func (propulsionWeight) Setup(io *oad.IO) error {
	io.AddInput(varMTOThrust, 120000, "N")
	io.AddInput(varEngines, 2, "")
	io.AddOutput(varPropMass, 5000, "kg")
	return nil
}

func (propulsionWeight) Compute(in, out oad.Values) error {
	// Dry mass of 2 kg per 100 N of thrust, plus nacelle and pylon.
	out.SetScalar(varPropMass, 1.2*0.02*in.Scalar(varMTOThrust)*in.Scalar(varEngines))
	return nil
}

type systemsWeight struct{}

func (systemsWeight) Setup(io *oad.IO) error {
	io.AddInput(varMTOW, 70000, "kg")
	io.AddInput(varSysRatio, 0.2, "")
	io.Describe(varSysRatio, "systems, furnishing and operational items as a ratio of the MTOW")
	io.AddOutput(varSysMass, 14000, "kg")
	return nil
}

func (systemsWeight) Compute(in, out oad.Values) error {
	out.SetScalar(varSysMass, in.Scalar(varSysRatio)*in.Scalar(varMTOW))
	return nil
}

// oweSum adds up the breakdown. Items of a deactivated submodel default to zero.
type oweSum struct{}

var oweItems = []string{varWingMass, varFuseMass, varPropMass, varSysMass}

func (oweSum) Setup(io *oad.IO) error {
	for _, item := range oweItems {
		io.AddInput(item, 0, "kg")
	}
	io.AddOutput(varOWE, 40000, "kg")
	return nil
}

func (oweSum) Compute(in, out oad.Values) error {
	var owe float64
	for _, item := range oweItems {
		owe += in.Scalar(item)
	}
	out.SetScalar(varOWE, owe)
	return nil
}

// NewOWE returns the operating weight empty breakdown, with the wing and fuselage masses from
// the active providers of their services.
func NewOWE(reg *oad.Registry) (*oad.Group, error) {
	wing, err := reg.Submodel(ServiceWingWeight, nil)
	if err != nil {
		return nil, err
	}
	fuselage, err := reg.Submodel(ServiceFuselageWeight, nil)
	if err != nil {
		return nil, err
	}
	g := oad.NewGroup("owe", nil)
	for _, child := range []struct {
		name string
		comp oad.Component
	}{
		{"wing", wing},
		{"fuselage", fuselage},
		{"propulsion", propulsionWeight{}},
		{"systems", systemsWeight{}},
		{"sum", oweSum{}},
	} {
		if err := g.Add(child.name, child.comp); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// MTOW closes the weight loop: MTOW = OWE + payload + takeoff fuel.
type MTOW struct{}

// Setup implements the oad.Component interface.
func (MTOW) Setup(io *oad.IO) error {
	io.AddInput(varOWE, 40000, "kg")
	io.AddInput(varPayload, 13600, "kg")
	io.AddInput(varFuel, 15000, "kg")
	io.AddOutput(varMTOW, 70000, "kg")
	io.AddOutput(varMZFW, 55000, "kg")
	return nil
}

// Compute implements the oad.Component interface.
func (MTOW) Compute(in, out oad.Values) error {
	mzfw := in.Scalar(varOWE) + in.Scalar(varPayload)
	out.SetScalar(varMZFW, mzfw)
	out.SetScalar(varMTOW, mzfw+in.Scalar(varFuel))
	return nil
}
