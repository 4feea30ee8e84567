package oad

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/unit"
)

const (
	lbInKg  = 0.45359237
	ftInM   = 0.3048
	nmInM   = 1852.
	lbfInN  = 4.4482216152605
	knInMps = nmInM / 3600
)

// Dimensions of the quantities exchanged between the disciplines.
var (
	dimensionless = unit.Dimensions{}
	massDims      = unit.Dimensions{unit.MassDim: 1}
	lengthDims    = unit.Dimensions{unit.LengthDim: 1}
	areaDims      = unit.Dimensions{unit.LengthDim: 2}
	forceDims     = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 1, unit.TimeDim: -2}
	timeDims      = unit.Dimensions{unit.TimeDim: 1}
	speedDims     = unit.Dimensions{unit.LengthDim: 1, unit.TimeDim: -1}
	angleDims     = unit.Dimensions{unit.AngleDim: 1}
	sfcDims       = unit.Dimensions{unit.LengthDim: -1, unit.TimeDim: 1} // kg/N/s
	massFlowDims  = unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -1}
	arealMassDims = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -2}
)

// units maps the unit names of the variable files to their SI value.
var units = map[string]*unit.Unit{
	"":         unit.New(1, dimensionless),
	"-":        unit.New(1, dimensionless),
	"percent":  unit.New(1e-2, dimensionless),
	"kg":       unit.New(1, massDims),
	"t":        unit.New(1e3, massDims),
	"lb":       unit.New(lbInKg, massDims),
	"m":        unit.New(1, lengthDims),
	"km":       unit.New(1e3, lengthDims),
	"ft":       unit.New(ftInM, lengthDims),
	"NM":       unit.New(nmInM, lengthDims),
	"m**2":     unit.New(1, areaDims),
	"ft**2":    unit.New(ftInM*ftInM, areaDims),
	"N":        unit.New(1, forceDims),
	"kN":       unit.New(1e3, forceDims),
	"lbf":      unit.New(lbfInN, forceDims),
	"s":        unit.New(1, timeDims),
	"min":      unit.New(60, timeDims),
	"h":        unit.New(3600, timeDims),
	"m/s":      unit.New(1, speedDims),
	"km/h":     unit.New(1e3/3600, speedDims),
	"kn":       unit.New(knInMps, speedDims),
	"rad":      unit.New(1, angleDims),
	"deg":      unit.New(math.Pi/180, angleDims),
	"kg/N/s":   unit.New(1, sfcDims),
	"lb/lbf/h": unit.New(lbInKg/lbfInN/3600, sfcDims),
	"kg/s":     unit.New(1, massFlowDims),
	"kg/h":     unit.New(1./3600, massFlowDims),
	"kg/m**2":  unit.New(1, arealMassDims),
	"lb/ft**2": unit.New(lbInKg/(ftInM*ftInM), arealMassDims),
}

// ConvertUnits converts a value between two units of the same dimensions.
func ConvertUnits(val float64, from, to string) (float64, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == to {
		return val, nil
	}
	uFrom, okFrom := units[from]
	uTo, okTo := units[to]
	if !okFrom || !okTo {
		return 0, fmt.Errorf("%w: unknown units `%s` -> `%s`", ErrIncompatibleUnits, from, to)
	}
	if !unit.DimensionsMatch(uFrom, uTo) {
		return 0, fmt.Errorf("%w: `%s` (%v) -> `%s` (%v)", ErrIncompatibleUnits, from, uFrom.Dimensions(), to, uTo.Dimensions())
	}
	return val * uFrom.Value() / uTo.Value(), nil
}

// convertAll converts every item of vals.
func convertAll(vals []float64, from, to string) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, val := range vals {
		c, err := ConvertUnits(val, from, to)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
