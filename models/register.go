// Package models holds a small set of aircraft sizing disciplines, registered in the default
// registry of oad at init.
package models

import (
	"strings"

	"github.com/aerodesign/oad"
)

// Identifiers of the registered systems and submodels.
const (
	WingGeometryID     = "oad.geometry.wing"
	FuselageGeometryID = "oad.geometry.fuselage"
	PolarID            = "oad.aerodynamics.polar"
	PropulsionID       = "oad.propulsion.engine"
	OWEID              = "oad.weight.owe"
	MTOWID             = "oad.weight.mtow"
	MissionID          = "oad.performance.mission"

	LegacyWingWeightID = "oad.submodel.weight.wing.legacy"
	AreaWingWeightID   = "oad.submodel.weight.wing.area"
	FuselageWeightID   = "oad.submodel.weight.fuselage.legacy"
)

func init() {
	Register(oad.DefaultRegistry)
}

func component(c oad.Component) oad.Factory {
	return func(*oad.Registry, oad.Options) (oad.Component, error) {
		return c, nil
	}
}

// Register registers the disciplines in the registry.
func Register(reg *oad.Registry) {
	reg.MustRegister(oad.Registration{
		ID:          WingGeometryID,
		Domain:      oad.DomainGeometry,
		Description: "wing area, span and MAC from the MTOW and the wing loading",
		Factory:     component(Wing{}),
	})
	reg.MustRegister(oad.Registration{
		ID:          FuselageGeometryID,
		Domain:      oad.DomainGeometry,
		Description: "fuselage wetted area",
		Factory:     component(Fuselage{}),
	})
	reg.MustRegister(oad.Registration{
		ID:          PolarID,
		Domain:      oad.DomainAerodynamics,
		Description: "parabolic cruise polar from the wetted areas",
		Factory:     component(Polar{}),
	})
	reg.MustRegister(oad.Registration{
		ID:          PropulsionID,
		Domain:      oad.DomainPropulsion,
		Description: "cruise SFC and max thrust",
		Options: []oad.OptionSpec{
			{Name: "engine", Default: engineRubber, Description: "rubber, generic or a reference engine (" + strings.Join(EngineNames(), ", ") + ")"},
		},
		Factory: func(_ *oad.Registry, opts oad.Options) (oad.Component, error) {
			model, err := opts.GetString("engine")
			if err != nil {
				return nil, err
			}
			return NewPropulsion(model)
		},
	})
	reg.MustRegister(oad.Registration{
		ID:          OWEID,
		Domain:      oad.DomainWeight,
		Description: "operating weight empty breakdown",
		Factory: func(r *oad.Registry, _ oad.Options) (oad.Component, error) {
			return NewOWE(r)
		},
	})
	reg.MustRegister(oad.Registration{
		ID:          MTOWID,
		Domain:      oad.DomainWeight,
		Description: "MTOW from the OWE, the payload and the mission fuel",
		Factory:     component(MTOW{}),
	})
	reg.MustRegister(oad.Registration{
		ID:          MissionID,
		Domain:      oad.DomainPerformance,
		Description: "sizing mission fuel",
		Options: []oad.OptionSpec{
			{Name: "segments", Default: DefaultSegments, Description: "segments flown in order"},
			{Name: "step", Default: 60., Description: "maximum integration step in s"},
		},
		Factory: func(_ *oad.Registry, opts oad.Options) (oad.Component, error) {
			segments, err := opts.GetStringSlice("segments")
			if err != nil {
				return nil, err
			}
			step, err := opts.GetFloat64("step")
			if err != nil {
				return nil, err
			}
			return NewMission(segments, step)
		},
	})

	reg.MustRegisterSubmodel(ServiceWingWeight, oad.Registration{
		ID:          LegacyWingWeightID,
		Domain:      oad.DomainWeight,
		Description: "wing mass from the MTOW, area and aspect ratio",
		Default:     true,
		Factory:     component(LegacyWingWeight{}),
	})
	reg.MustRegisterSubmodel(ServiceWingWeight, oad.Registration{
		ID:          AreaWingWeightID,
		Domain:      oad.DomainWeight,
		Description: "wing mass proportional to its area",
		Options:     []oad.OptionSpec{{Name: "density", Default: 72., Description: "kg per m**2 of wing"}},
		Factory: func(_ *oad.Registry, opts oad.Options) (oad.Component, error) {
			density, err := opts.GetFloat64("density")
			if err != nil {
				return nil, err
			}
			return AreaWingWeight{density: density}, nil
		},
	})
	reg.MustRegisterSubmodel(ServiceFuselageWeight, oad.Registration{
		ID:          FuselageWeightID,
		Domain:      oad.DomainWeight,
		Description: "fuselage mass from its wetted area",
		Factory:     component(FuselageWeight{}),
	})
}
