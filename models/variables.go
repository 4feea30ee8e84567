package models

// Variable names shared by the disciplines.
const (
	varMTOW      = "data:weight:aircraft:MTOW"
	varOWE       = "data:weight:aircraft:OWE"
	varMZFW      = "data:weight:aircraft:MZFW"
	varPayload   = "data:weight:aircraft:payload"
	varWingMass  = "data:weight:airframe:wing:mass"
	varFuseMass  = "data:weight:airframe:fuselage:mass"
	varPropMass  = "data:weight:propulsion:mass"
	varSysMass   = "data:weight:systems:mass"
	varSysRatio  = "data:weight:systems:mass_ratio"
	varRange     = "data:TLAR:range"
	varMach      = "data:TLAR:cruise_mach"
	varLoading   = "data:geometry:wing:loading"
	varWingArea  = "data:geometry:wing:area"
	varAR        = "data:geometry:wing:aspect_ratio"
	varTaper     = "data:geometry:wing:taper_ratio"
	varSpan      = "data:geometry:wing:span"
	varMAC       = "data:geometry:wing:MAC:length"
	varWingWet   = "data:geometry:wing:wetted_area"
	varFuseLen   = "data:geometry:fuselage:length"
	varFuseWidth = "data:geometry:fuselage:maximum_width"
	varFuseWet   = "data:geometry:fuselage:wetted_area"
	varEngines   = "data:geometry:propulsion:engine:count"
	varCf        = "data:aerodynamics:aircraft:skin_friction"
	varOswald    = "data:aerodynamics:aircraft:oswald_efficiency"
	varOtherWet  = "data:aerodynamics:aircraft:other_wetted_area_ratio"
	varWetArea   = "data:aerodynamics:aircraft:wetted_area"
	varCD0       = "data:aerodynamics:aircraft:cruise:CD0"
	varK         = "data:aerodynamics:aircraft:cruise:induced_drag_coefficient"
	varLDMax     = "data:aerodynamics:aircraft:cruise:L_D_max"
	varCLOpt     = "data:aerodynamics:aircraft:cruise:optimal_CL"
	varMTOThrust = "data:propulsion:MTO_thrust"
	varBPR       = "data:propulsion:rubber_engine:bypass_ratio"
	varGenSFC    = "data:propulsion:generic:SFC"
	varThrRate   = "data:propulsion:cruise:thrust_rate"
	varSFC       = "data:propulsion:cruise:SFC"
	varMaxThrust = "data:propulsion:cruise:max_thrust"
	varAltitude  = "data:mission:sizing:cruise:altitude"
	varFuel      = "data:mission:sizing:fuel"
	varBlockFuel = "data:mission:sizing:block_fuel"
	varReserve   = "data:mission:sizing:reserve:fuel"
	varResRate   = "data:mission:sizing:reserve:rate"
	varCruiseDur = "data:mission:sizing:cruise:duration"
	varHoldDur   = "data:mission:sizing:holding:duration"
	varTaxiOut   = "data:mission:sizing:taxi_out"
	varTaxiIn    = "data:mission:sizing:taxi_in"
	varCruise    = "data:mission:sizing:cruise"
	varHolding   = "data:mission:sizing:holding"
)
