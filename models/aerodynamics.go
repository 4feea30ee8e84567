package models

import (
	"fmt"
	"math"

	"github.com/aerodesign/oad"
)

// Polar computes the parabolic cruise polar CD = CD0 + k CL^2.
type Polar struct{}

// Setup implements the oad.Component interface.
func (Polar) Setup(io *oad.IO) error {
	io.AddInput(varWingArea, 120, "m**2")
	io.AddInput(varSpan, 34, "m")
	io.AddInput(varWingWet, 240, "m**2")
	io.AddInput(varFuseWet, 400, "m**2")
	io.AddInput(varCf, 0.003, "")
	io.Describe(varCf, "equivalent skin friction coefficient")
	io.AddInput(varOswald, 0.8, "")
	io.AddInput(varOtherWet, 0.5, "")
	io.Describe(varOtherWet, "wetted area of the tails and nacelles, as a ratio of the wing area")
	io.AddOutput(varWetArea, 700, "m**2")
	io.AddOutput(varCD0, 0.02, "")
	io.AddOutput(varK, 0.04, "")
	io.AddOutput(varLDMax, 17, "")
	io.AddOutput(varCLOpt, 0.6, "")
	return nil
}

// Compute implements the oad.Component interface.
func (Polar) Compute(in, out oad.Values) error {
	area, span := in.Scalar(varWingArea), in.Scalar(varSpan)
	if area <= 0 || span <= 0 {
		return fmt.Errorf("invalid wing: area=%f span=%f", area, span)
	}
	wet := in.Scalar(varWingWet) + in.Scalar(varFuseWet) + in.Scalar(varOtherWet)*area
	cd0 := in.Scalar(varCf) * wet / area
	k := 1 / (math.Pi * in.Scalar(varOswald) * span * span / area)
	out.SetScalar(varWetArea, wet)
	out.SetScalar(varCD0, cd0)
	out.SetScalar(varK, k)
	out.SetScalar(varLDMax, 1/(2*math.Sqrt(cd0*k)))
	out.SetScalar(varCLOpt, math.Sqrt(cd0/k))
	return nil
}
