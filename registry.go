// Package oad assembles overall aircraft design problems: disciplinary components register
// themselves by identifier, a declarative configuration selects and wires them into a
// computation graph, and nonlinear solvers converge the coupled variables.
package oad

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-kit/log/level"
)

// Factory instantiates a registered component. The registry is the one used for the build,
// so that composite components resolve their submodels from it.
type Factory func(reg *Registry, opts Options) (Component, error)

// Registration binds an identifier to a factory and its metadata.
type Registration struct {
	ID          string
	Factory     Factory
	Domain      ModelDomain
	Description string
	Options     []OptionSpec
	Override    bool // replace an existing binding instead of failing
	Default     bool // default provider of a submodel service
}

// Registry maps identifiers to component factories.
// It is meant to be filled at init time and read afterwards.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]Registration
	byDomain  map[ModelDomain][]string
	submodels map[string]map[string]Registration // service -> provider -> registration
	active    map[string]string                  // service -> provider, "" deactivates
}

// DefaultRegistry is the process wide registry filled by the model packages.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:   make(map[string]Registration),
		byDomain:  make(map[ModelDomain][]string),
		submodels: make(map[string]map[string]Registration),
		active:    make(map[string]string),
	}
}

func (reg Registration) validate() error {
	if reg.ID == "" {
		return fmt.Errorf("%w: empty identifier", ErrMalformedRegistration)
	}
	if reg.Factory == nil {
		return fmt.Errorf("%w: `%s` has no factory", ErrMalformedRegistration, reg.ID)
	}
	return nil
}

// Register binds the registration's identifier. It fails with ErrDuplicateID if the identifier
// is already bound, unless Override is set.
func (r *Registry) Register(reg Registration) error {
	if err := reg.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, exists := r.entries[reg.ID]; exists {
		if !reg.Override {
			return fmt.Errorf("%w: %s", ErrDuplicateID, reg.ID)
		}
		level.Warn(logger).Log("subsys", "registry", "overridden", reg.ID)
		r.byDomain[prev.Domain] = removeString(r.byDomain[prev.Domain], reg.ID)
	}
	r.entries[reg.ID] = reg
	r.byDomain[reg.Domain] = append(r.byDomain[reg.Domain], reg.ID)
	return nil
}

// MustRegister registers and panics on error. Use it from init functions.
func (r *Registry) MustRegister(reg Registration) {
	if err := r.Register(reg); err != nil {
		panic(fmt.Errorf("could not register %s: %w", reg.ID, err))
	}
}

// Unregister removes a binding.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, exists := r.entries[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.entries, id)
	r.byDomain[reg.Domain] = removeString(r.byDomain[reg.Domain], id)
	return nil
}

// Lookup returns the registration bound to the identifier.
func (r *Registry) Lookup(id string) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, exists := r.entries[id]
	if !exists {
		return Registration{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return reg, nil
}

// Factory returns the factory bound to the identifier.
func (r *Registry) Factory(id string) (Factory, error) {
	reg, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	return reg.Factory, nil
}

// Domain returns the domain of the identifier.
func (r *Registry) Domain(id string) (ModelDomain, error) {
	reg, err := r.Lookup(id)
	if err != nil {
		return DomainUnspecified, err
	}
	return reg.Domain, nil
}

// Description returns the description of the identifier.
func (r *Registry) Description(id string) (string, error) {
	reg, err := r.Lookup(id)
	if err != nil {
		return "", err
	}
	return reg.Description, nil
}

// IDs returns all registered identifiers, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ByDomain returns the identifiers of a domain, sorted.
func (r *Registry) ByDomain(domain ModelDomain) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.byDomain[domain]))
	copy(ids, r.byDomain[domain])
	sort.Strings(ids)
	return ids
}

// Instantiate resolves the options against the declared ones and calls the factory.
func (r *Registry) Instantiate(id string, given map[string]any) (Component, error) {
	reg, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	return r.instantiate(reg, given)
}

func (r *Registry) instantiate(reg Registration, given map[string]any) (Component, error) {
	opts, err := ResolveOptions(reg.Options, given)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", reg.ID, err)
	}
	comp, err := reg.Factory(r, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", reg.ID, err)
	}
	if comp == nil {
		return nil, fmt.Errorf("%w: factory of `%s` returned no component", ErrMalformedRegistration, reg.ID)
	}
	return comp, nil
}

// ModuleInfo describes a registered system, as listed by ListModules.
type ModuleInfo struct {
	ID          string
	Domain      ModelDomain
	Description string
	Options     []OptionSpec
}

// ListModules lists the registered systems of the given domains (all if none), sorted by identifier.
func (r *Registry) ListModules(domains ...ModelDomain) []ModuleInfo {
	var ids []string
	if len(domains) == 0 {
		ids = r.IDs()
	} else {
		for _, d := range domains {
			ids = append(ids, r.ByDomain(d)...)
		}
		sort.Strings(ids)
	}
	infos := make([]ModuleInfo, 0, len(ids))
	for _, id := range ids {
		reg, err := r.Lookup(id)
		if err != nil {
			continue
		}
		infos = append(infos, ModuleInfo{reg.ID, reg.Domain, reg.Description, reg.Options})
	}
	return infos
}

// RegisterSystem registers in the DefaultRegistry.
func RegisterSystem(reg Registration) error {
	return DefaultRegistry.Register(reg)
}

// MustRegisterSystem registers in the DefaultRegistry and panics on error.
func MustRegisterSystem(reg Registration) {
	DefaultRegistry.MustRegister(reg)
}

// ListModules lists the systems of the DefaultRegistry.
func ListModules(domains ...ModelDomain) []ModuleInfo {
	return DefaultRegistry.ListModules(domains...)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, item := range list {
		if item != s {
			out = append(out, item)
		}
	}
	return out
}
