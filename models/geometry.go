package models

import (
	"fmt"
	"math"

	"github.com/aerodesign/oad"
)

// Wing sizes the wing from the MTOW and the wing loading.
type Wing struct{}

// Setup implements the oad.Component interface.
func (Wing) Setup(io *oad.IO) error {
	io.AddInput(varMTOW, 70000, "kg")
	io.AddInput(varLoading, 600, "kg/m**2")
	io.Describe(varLoading, "MTOW divided by the wing reference area")
	io.AddInput(varAR, 9.5, "")
	io.AddInput(varTaper, 0.3, "")
	io.AddOutput(varWingArea, 120, "m**2")
	io.AddOutput(varSpan, 34, "m")
	io.AddOutput(varMAC, 4, "m")
	io.AddOutput(varWingWet, 240, "m**2")
	return nil
}

// Compute implements the oad.Component interface.
func (Wing) Compute(in, out oad.Values) error {
	loading, ar, taper := in.Scalar(varLoading), in.Scalar(varAR), in.Scalar(varTaper)
	if loading <= 0 || ar <= 0 || taper <= 0 || taper > 1 {
		return fmt.Errorf("invalid wing definition: loading=%f AR=%f taper=%f", loading, ar, taper)
	}
	area := in.Scalar(varMTOW) / loading
	span := math.Sqrt(ar * area)
	rootChord := 2 * area / (span * (1 + taper))
	out.SetScalar(varWingArea, area)
	out.SetScalar(varSpan, span)
	out.SetScalar(varMAC, 2./3*rootChord*(1+taper+taper*taper)/(1+taper))
	out.SetScalar(varWingWet, 2.05*area)
	return nil
}

// Fuselage computes the fuselage wetted area.
type Fuselage struct{}

// Setup implements the oad.Component interface.
func (Fuselage) Setup(io *oad.IO) error {
	io.AddInput(varFuseLen, 37.6, "m")
	io.AddInput(varFuseWidth, 3.95, "m")
	io.AddOutput(varFuseWet, 400, "m**2")
	return nil
}

// Compute implements the oad.Component interface.
func (Fuselage) Compute(in, out oad.Values) error {
	// Cylinder with tapered nose and tail cones.
	out.SetScalar(varFuseWet, 0.85*math.Pi*in.Scalar(varFuseWidth)*in.Scalar(varFuseLen))
	return nil
}
