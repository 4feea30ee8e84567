package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/aerodesign/oad"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Mission segment names, in the order they may be flown.
const (
	SegmentTaxiOut = "taxi_out"
	SegmentCruise  = "cruise"
	SegmentHolding = "holding"
	SegmentTaxiIn  = "taxi_in"
)

// DefaultSegments is the sizing mission.
var DefaultSegments = []string{SegmentTaxiOut, SegmentCruise, SegmentHolding, SegmentTaxiIn}

// Segment defines a phase of the mission.
type Segment interface {
	// Fly returns the fuel burnt in kg and the duration in s, starting at mass m in kg.
	Fly(m float64) (fuel, duration float64, err error)
	String() string
}

// Taxi is flown at constant fuel flow.
type Taxi struct {
	Duration float64 // s
	FuelFlow float64 // kg/s
	Out      bool    // before takeoff, so it does not weigh on the flight
}

// String implements the Segment interface.
func (s *Taxi) String() string {
	if s.Out {
		return fmt.Sprintf("Taxi out for %.0f s.", s.Duration)
	}
	return fmt.Sprintf("Taxi in for %.0f s.", s.Duration)
}

// Fly implements the Segment interface.
func (s *Taxi) Fly(float64) (float64, float64, error) {
	return s.Duration * s.FuelFlow, s.Duration, nil
}

// Cruise is flown at constant Mach and altitude over a distance.
type Cruise struct {
	Distance float64 // m
	Mach     float64
	Altitude float64 // m
	Area     float64 // m**2
	CD0, K   float64
	SFC      float64 // kg/N/s
	Step     float64 // s, maximum
}

// String implements the Segment interface.
func (s *Cruise) String() string {
	return fmt.Sprintf("Cruise for %.0f km at M%.2f.", s.Distance/1e3, s.Mach)
}

// Fly implements the Segment interface.
func (s *Cruise) Fly(m float64) (float64, float64, error) {
	atm := NewAtmosphere(s.Altitude)
	speed := s.Mach * atm.SpeedOfSound
	if speed <= 0 || s.Area <= 0 {
		return 0, 0, fmt.Errorf("invalid cruise conditions: speed=%f area=%f", speed, s.Area)
	}
	qS := atm.DynamicPressure(s.Mach) * s.Area
	duration := s.Distance / speed
	// The drag follows the lift needed by the current mass.
	burn := func(mass float64) float64 {
		cl := mass * g0 / qS
		return s.SFC * qS * (s.CD0 + s.K*cl*cl)
	}
	fuel, err := integrateMass(m, duration, s.Step, burn)
	return fuel, duration, err
}

// Holding is flown at max L/D for a duration.
type Holding struct {
	Duration float64 // s
	LDMax    float64
	SFC      float64 // kg/N/s
	Step     float64 // s, maximum
}

// String implements the Segment interface.
func (s *Holding) String() string {
	return fmt.Sprintf("Holding for %.0f min.", s.Duration/60)
}

// Fly implements the Segment interface.
func (s *Holding) Fly(m float64) (float64, float64, error) {
	if s.LDMax <= 0 {
		return 0, 0, fmt.Errorf("invalid L/D %f", s.LDMax)
	}
	fuel, err := integrateMass(m, s.Duration, s.Step, func(mass float64) float64 {
		return s.SFC * mass * g0 / s.LDMax
	})
	return fuel, s.Duration, err
}

// massState integrates the mass under a fuel flow over a known duration.
type massState struct {
	mass, end, h float64
	flow         func(mass float64) float64
}

func (s *massState) GetState() []float64 {
	return []float64{s.mass}
}

func (s *massState) SetState(t float64, st []float64) {
	s.mass = st[0]
}

func (s *massState) Func(t float64, st []float64) []float64 {
	return []float64{-s.flow(st[0])}
}

func (s *massState) Stop(t float64) bool {
	return t >= s.end-s.h/2 || s.mass <= 0 || math.IsNaN(s.mass)
}

// integrateMass returns the fuel burnt from m0 over the duration, with steps no longer than maxStep.
func integrateMass(m0, duration, maxStep float64, flow func(float64) float64) (float64, error) {
	if duration <= 0 {
		return 0, nil
	}
	n := math.Ceil(duration / maxStep)
	st := &massState{mass: m0, end: duration, h: duration / n, flow: flow}
	if _, _, err := NewRK4(0, st.h, st).Solve(); err != nil {
		return 0, err
	}
	if st.mass <= 0 || math.IsNaN(st.mass) {
		return 0, fmt.Errorf("not enough mass to fly %.0f s from %.0f kg", duration, m0)
	}
	return m0 - st.mass, nil
}

// Mission computes the fuel of the sizing mission, whose segments are flown in order from the
// MTOW. The reserve is a ratio of the cruise fuel.
type Mission struct {
	segments []string
	step     float64
	logger   kitlog.Logger
}

// NewMission returns the mission of the given segments, integrated with the step in seconds.
func NewMission(segments []string, step float64) (*Mission, error) {
	if len(segments) == 0 {
		segments = DefaultSegments
	}
	seen := make(map[string]bool)
	for _, name := range segments {
		switch name {
		case SegmentTaxiOut, SegmentCruise, SegmentHolding, SegmentTaxiIn:
		default:
			return nil, fmt.Errorf("%w: unknown mission segment `%s`", oad.ErrMalformedConfig, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: mission segment `%s` is flown twice", oad.ErrMalformedConfig, name)
		}
		seen[name] = true
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: invalid integration step %f", oad.ErrMalformedConfig, step)
	}
	return &Mission{segments: segments, step: step, logger: kitlog.With(oad.Logger(), "subsys", "mission")}, nil
}

func (m *Mission) has(segment string) bool {
	for _, name := range m.segments {
		if name == segment {
			return true
		}
	}
	return false
}

// Setup implements the oad.Component interface.
func (m *Mission) Setup(io *oad.IO) error {
	io.AddInput(varMTOW, 70000, "kg")
	for _, taxi := range []string{varTaxiOut, varTaxiIn} {
		if m.has(taxi[strings.LastIndex(taxi, ":")+1:]) {
			io.AddInput(taxi+":duration", 600, "s")
			io.AddInput(taxi+":fuel_flow", 0.2, "kg/s")
		}
	}
	if m.has(SegmentCruise) || m.has(SegmentHolding) {
		io.AddInput(varSFC, 1.6e-5, "kg/N/s")
	}
	if m.has(SegmentCruise) {
		io.AddInput(varRange, 2750, "NM")
		io.AddInput(varMach, 0.78, "")
		io.AddInput(varAltitude, 35000, "ft")
		io.AddInput(varWingArea, 120, "m**2")
		io.AddInput(varCD0, 0.02, "")
		io.AddInput(varK, 0.04, "")
		io.AddInput(varResRate, 0.05, "")
		io.Describe(varResRate, "reserve fuel as a ratio of the cruise fuel")
		io.AddOutput(varCruiseDur, 6, "h")
	}
	if m.has(SegmentHolding) {
		io.AddInput(varHoldDur, 30, "min")
		io.AddInput(varLDMax, 17, "")
	}
	for _, seg := range []string{varTaxiOut, varCruise, varHolding, varTaxiIn} {
		io.AddOutput(seg+":fuel", 0, "kg")
	}
	io.AddOutput(varReserve, 0, "kg")
	io.AddOutput(varBlockFuel, 15000, "kg")
	io.AddOutput(varFuel, 15000, "kg")
	io.Describe(varFuel, "fuel on board at takeoff, reserves included")
	return nil
}

// segment returns the named segment with its inputs, in SI units.
func (m *Mission) segment(name string, in oad.Values) Segment {
	switch name {
	case SegmentTaxiOut:
		return &Taxi{Duration: in.Scalar(varTaxiOut + ":duration"), FuelFlow: in.Scalar(varTaxiOut + ":fuel_flow"), Out: true}
	case SegmentTaxiIn:
		return &Taxi{Duration: in.Scalar(varTaxiIn + ":duration"), FuelFlow: in.Scalar(varTaxiIn + ":fuel_flow")}
	case SegmentCruise:
		return &Cruise{
			Distance: in.Scalar(varRange) * 1852,
			Mach:     in.Scalar(varMach),
			Altitude: in.Scalar(varAltitude) * 0.3048,
			Area:     in.Scalar(varWingArea),
			CD0:      in.Scalar(varCD0),
			K:        in.Scalar(varK),
			SFC:      in.Scalar(varSFC),
			Step:     m.step,
		}
	default:
		return &Holding{Duration: in.Scalar(varHoldDur) * 60, LDMax: in.Scalar(varLDMax), SFC: in.Scalar(varSFC), Step: m.step}
	}
}

// Compute implements the oad.Component interface.
func (m *Mission) Compute(in, out oad.Values) error {
	mass := in.Scalar(varMTOW)
	fuels := make(map[string]float64, len(m.segments))
	for _, name := range m.segments {
		seg := m.segment(name, in)
		fuel, duration, err := seg.Fly(mass)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		level.Debug(m.logger).Log("segment", seg, "fuel", fuel, "duration", duration)
		fuels[name] = fuel
		if taxi, ok := seg.(*Taxi); !ok || !taxi.Out {
			mass -= fuel
		}
		if name == SegmentCruise {
			out.SetScalar(varCruiseDur, duration/3600)
		}
	}
	reserve := in.Scalar(varResRate) * fuels[SegmentCruise]
	out.SetScalar(varTaxiOut+":fuel", fuels[SegmentTaxiOut])
	out.SetScalar(varCruise+":fuel", fuels[SegmentCruise])
	out.SetScalar(varHolding+":fuel", fuels[SegmentHolding])
	out.SetScalar(varTaxiIn+":fuel", fuels[SegmentTaxiIn])
	out.SetScalar(varReserve, reserve)
	out.SetScalar(varBlockFuel, fuels[SegmentTaxiOut]+fuels[SegmentCruise]+fuels[SegmentTaxiIn])
	out.SetScalar(varFuel, fuels[SegmentCruise]+fuels[SegmentHolding]+fuels[SegmentTaxiIn]+reserve)
	return nil
}
