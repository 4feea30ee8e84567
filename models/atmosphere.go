package models

import "math"

// ISA constants.
const (
	g0          = 9.80665   // m/s^2
	airR        = 287.05287 // J/kg/K
	airGamma    = 1.4       // heat capacity ratio
	seaLevelT   = 288.15    // K
	seaLevelP   = 101325.   // Pa
	seaLevelRho = 1.225     // kg/m^3
	lapseRate   = 0.0065    // K/m
	tropopause  = 11000.    // m
	stratoT     = 216.65    // K
	ceiling     = 20000.    // m, upper limit of the model
	tropoExp    = g0 / (lapseRate * airR)
)

// Atmosphere is the International Standard Atmosphere at a given altitude.
type Atmosphere struct {
	Altitude     float64 // m
	Temperature  float64 // K
	Pressure     float64 // Pa
	Density      float64 // kg/m^3
	SpeedOfSound float64 // m/s
}

// NewAtmosphere returns the ISA conditions at the altitude in meters. The altitude is clamped
// to [0, 20000] m.
func NewAtmosphere(altitude float64) Atmosphere {
	h := math.Max(0, math.Min(altitude, ceiling))
	var t, p float64
	if h <= tropopause {
		t = seaLevelT - lapseRate*h
		p = seaLevelP * math.Pow(t/seaLevelT, tropoExp)
	} else {
		t = stratoT
		p11 := seaLevelP * math.Pow(stratoT/seaLevelT, tropoExp)
		p = p11 * math.Exp(-g0*(h-tropopause)/(airR*stratoT))
	}
	return Atmosphere{
		Altitude:     h,
		Temperature:  t,
		Pressure:     p,
		Density:      p / (airR * t),
		SpeedOfSound: math.Sqrt(airGamma * airR * t),
	}
}

// Theta is the temperature ratio to sea level.
func (a Atmosphere) Theta() float64 {
	return a.Temperature / seaLevelT
}

// Sigma is the density ratio to sea level.
func (a Atmosphere) Sigma() float64 {
	return a.Density / seaLevelRho
}

// DynamicPressure returns the dynamic pressure in Pa at the Mach number.
func (a Atmosphere) DynamicPressure(mach float64) float64 {
	return 0.5 * airGamma * a.Pressure * mach * mach
}
