package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Engine defines an Engine interface.
type Engine interface {
	// MaxThrust returns the max thrust in Newtons of one engine.
	MaxThrust(atm Atmosphere, mach float64) float64
	// SFC returns the specific fuel consumption in kg/N/s at the given thrust rate.
	SFC(atm Atmosphere, mach, thrustRate float64) float64
	String() string
}

/* Available engines */

// RubberEngine is a parametric turbofan which scales with its sea level thrust.
type RubberEngine struct {
	SeaLevelThrust float64 // N, max takeoff thrust
	BypassRatio    float64
}

// MaxThrust implements the Engine interface.
func (e *RubberEngine) MaxThrust(atm Atmosphere, mach float64) float64 {
	lapse := math.Pow(atm.Sigma(), 0.7) * (1 - (0.15+0.02*e.BypassRatio)*mach)
	return e.SeaLevelThrust * math.Max(lapse, 0)
}

// SFC implements the Engine interface.
func (e *RubberEngine) SFC(atm Atmosphere, mach, thrustRate float64) float64 {
	sls := 1.1e-5 * (1 - 0.02*(e.BypassRatio-5))
	throttle := 1 + 0.3*(1-thrustRate)*(1-thrustRate)
	return sls * (1 + 0.7*mach) * math.Sqrt(atm.Theta()) * throttle
}

func (e *RubberEngine) String() string {
	return fmt.Sprintf("rubber engine (%.0f kN, BPR %.1f)", e.SeaLevelThrust/1e3, e.BypassRatio)
}

// GenericEngine is an engine with a constant thrust and SFC.
type GenericEngine struct {
	thrust float64
	sfc    float64
}

// MaxThrust implements the Engine interface.
func (e *GenericEngine) MaxThrust(Atmosphere, float64) float64 {
	return e.thrust
}

// SFC implements the Engine interface.
func (e *GenericEngine) SFC(Atmosphere, float64, float64) float64 {
	return e.sfc
}

func (e *GenericEngine) String() string {
	return fmt.Sprintf("generic engine (%.0f kN, SFC %g kg/N/s)", e.thrust/1e3, e.sfc)
}

// NewGenericEngine returns a generic engine.
func NewGenericEngine(thrust, sfc float64) *GenericEngine {
	return &GenericEngine{thrust, sfc}
}

var enginePresets = map[string]RubberEngine{
	"cfm56-5b": {SeaLevelThrust: 133e3, BypassRatio: 5.7},
	"cfm56-7b": {SeaLevelThrust: 121e3, BypassRatio: 5.1},
	"leap-1a":  {SeaLevelThrust: 143e3, BypassRatio: 11},
}

// EngineFromString returns the engine of the given reference (case insensitive).
func EngineFromString(name string) (Engine, error) {
	preset, ok := enginePresets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("undefined engine `%s` (known: %s)", name, strings.Join(EngineNames(), ", "))
	}
	return &preset, nil
}

// EngineNames returns the known engine references.
func EngineNames() []string {
	names := make([]string, 0, len(enginePresets))
	for name := range enginePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
