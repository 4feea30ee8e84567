package oad

import (
	"fmt"
	"strings"
)

// ModelDomain tags a registered system with the discipline it belongs to.
type ModelDomain uint8

const (
	// DomainUnspecified is the default domain.
	DomainUnspecified ModelDomain = iota
	// DomainGeometry is for geometry sizing.
	DomainGeometry
	// DomainAerodynamics is for polars and aerodynamic coefficients.
	DomainAerodynamics
	// DomainHandlingQualities is for tail sizing and static margins.
	DomainHandlingQualities
	// DomainWeight is for mass breakdowns.
	DomainWeight
	// DomainPerformance is for mission computations.
	DomainPerformance
	// DomainPropulsion is for engine models.
	DomainPropulsion
	// DomainLoadAnalysis is for structural loads.
	DomainLoadAnalysis
	// DomainOther is for everything else.
	DomainOther
)

var domainNames = []string{"unspecified", "geometry", "aerodynamics", "handling_qualities", "weight", "performance", "propulsion", "load_analysis", "other"}

func (d ModelDomain) String() string {
	if int(d) < len(domainNames) {
		return domainNames[d]
	}
	panic("cannot stringify unknown model domain")
}

// ModelDomainFromString returns the domain from its name (case insensitive).
func ModelDomainFromString(name string) (ModelDomain, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, known := range domainNames {
		if name == known {
			return ModelDomain(i), nil
		}
	}
	return DomainUnspecified, fmt.Errorf("undefined model domain `%s`", name)
}
