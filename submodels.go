package oad

import (
	"fmt"
	"sort"
)

// RegisterSubmodel adds a provider of a service. The provider is identified by reg.ID.
func (r *Registry) RegisterSubmodel(serviceID string, reg Registration) error {
	if serviceID == "" {
		return fmt.Errorf("%w: empty service identifier", ErrMalformedRegistration)
	}
	if err := reg.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	providers, ok := r.submodels[serviceID]
	if !ok {
		providers = make(map[string]Registration)
		r.submodels[serviceID] = providers
	}
	if _, exists := providers[reg.ID]; exists && !reg.Override {
		return fmt.Errorf("%w: %s provides %s already", ErrDuplicateID, reg.ID, serviceID)
	}
	providers[reg.ID] = reg
	return nil
}

// MustRegisterSubmodel registers a provider and panics on error.
func (r *Registry) MustRegisterSubmodel(serviceID string, reg Registration) {
	if err := r.RegisterSubmodel(serviceID, reg); err != nil {
		panic(fmt.Errorf("could not register submodel %s: %w", reg.ID, err))
	}
}

// SetActiveSubmodel selects the provider of a service. An empty provider deactivates the service.
func (r *Registry) SetActiveSubmodel(serviceID, providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[serviceID] = providerID
}

// ResetActiveSubmodels forgets all provider selections.
func (r *Registry) ResetActiveSubmodels() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = make(map[string]string)
}

// activeSubmodels returns a copy of the provider selections.
func (r *Registry) activeSubmodels() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make(map[string]string, len(r.active))
	for service, provider := range r.active {
		active[service] = provider
	}
	return active
}

// restoreActiveSubmodels replaces the provider selections.
func (r *Registry) restoreActiveSubmodels(active map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = active
}

// SubmodelProviders returns the providers of a service, sorted.
func (r *Registry) SubmodelProviders(serviceID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.submodels[serviceID]))
	for id := range r.submodels[serviceID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// submodelProvider returns the registration to use for the service, or false if the
// service is deactivated.
func (r *Registry) submodelProvider(serviceID string) (Registration, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	providers := r.submodels[serviceID]
	if providerID, selected := r.active[serviceID]; selected {
		if providerID == "" {
			return Registration{}, false, nil
		}
		reg, ok := providers[providerID]
		if !ok {
			return Registration{}, false, fmt.Errorf("%w: %s does not provide %s", ErrNotFound, providerID, serviceID)
		}
		return reg, true, nil
	}
	switch len(providers) {
	case 0:
		return Registration{}, false, fmt.Errorf("%w for %s", ErrNoSubmodel, serviceID)
	case 1:
		for _, reg := range providers {
			return reg, true, nil
		}
	}
	var defaults []Registration
	for _, reg := range providers {
		if reg.Default {
			defaults = append(defaults, reg)
		}
	}
	if len(defaults) == 1 {
		return defaults[0], true, nil
	}
	return Registration{}, false, fmt.Errorf("%w: %s has %d providers", ErrTooManySubmodels, serviceID, len(providers))
}

// Submodel instantiates the active provider of a service. A deactivated service resolves to a
// component without variables.
func (r *Registry) Submodel(serviceID string, given map[string]any) (Component, error) {
	reg, ok, err := r.submodelProvider(serviceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return emptyComponent{}, nil
	}
	return r.instantiate(reg, given)
}

// emptyComponent stands for a deactivated submodel.
type emptyComponent struct{}

func (emptyComponent) Setup(*IO) error              { return nil }
func (emptyComponent) Compute(in, out Values) error { return nil }
