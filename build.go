package oad

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-kit/log/level"
)

// BuildGraph instantiates the model tree and declares its variables. Every instantiation error
// of the tree is reported, each one as a *ConfigurationError keyed by the dotted path of the
// faulty node; promotion errors are reported once the tree is complete.
func BuildGraph(cfg ModelConfig, reg *Registry) (*Group, error) {
	if reg == nil {
		reg = DefaultRegistry
	}
	name := cfg.Name
	if name == "" {
		name = "model"
	}
	if !cfg.IsGroup() {
		return nil, configErr(name, fmt.Errorf("%w: the model must be a group", ErrMalformedConfig))
	}
	var errs []error
	g := buildGroup(cfg, name, reg, &errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	// Declaring the tree resolves the promotions, which reports outputs written twice.
	if err := g.Setup(&IO{}); err != nil {
		return nil, configErr(name, err)
	}
	return g, nil
}

func buildGroup(cfg ModelConfig, path string, reg *Registry, errs *[]error) *Group {
	var solver NonlinearSolver
	if cfg.Solver != nil {
		var err error
		if solver, err = SolverFromConfig(*cfg.Solver); err != nil {
			*errs = append(*errs, configErr(path+"."+keyNonlinearSolver, err))
		}
	}
	g := NewGroup(cfg.Name, solver)
	g.path = path
	for _, conn := range cfg.Connections {
		g.Connect(conn.Source, conn.Target)
	}
	for _, child := range cfg.Children {
		childPath := path + "." + child.Name
		var comp Component
		if child.IsGroup() {
			comp = buildGroup(child, childPath, reg, errs)
		} else {
			var err error
			if comp, err = buildSystem(child, reg); err != nil {
				*errs = append(*errs, configErr(childPath, err))
				continue
			}
		}
		if err := g.Add(child.Name, comp); err != nil {
			*errs = append(*errs, configErr(childPath, err))
		}
	}
	return g
}

// buildSystem instantiates a registered system, or the active provider of a submodel service.
func buildSystem(cfg ModelConfig, reg *Registry) (Component, error) {
	comp, err := reg.Instantiate(cfg.ID, cfg.Options)
	if errors.Is(err, ErrNotFound) && len(reg.SubmodelProviders(cfg.ID)) > 0 {
		return reg.Submodel(cfg.ID, cfg.Options)
	}
	return comp, err
}

// ApplySubmodels activates the providers chosen by the configuration. An empty provider
// deactivates the service.
func ApplySubmodels(reg *Registry, choices map[string]string) error {
	services := make([]string, 0, len(choices))
	for service := range choices {
		services = append(services, service)
	}
	sort.Strings(services)
	var errs []error
	for _, service := range services {
		provider := choices[service]
		providers := reg.SubmodelProviders(service)
		if len(providers) == 0 {
			errs = append(errs, configErr("submodels."+service, fmt.Errorf("%w: unknown service", ErrNotFound)))
			continue
		}
		if i := sort.SearchStrings(providers, provider); provider != "" && (i == len(providers) || providers[i] != provider) {
			errs = append(errs, configErr("submodels."+service, fmt.Errorf("%w: %s does not provide %s", ErrNotFound, provider, service)))
			continue
		}
		reg.SetActiveSubmodel(service, provider)
	}
	return errors.Join(errs...)
}

// BuildProblem builds and sets up the problem described by the configuration. The submodel
// choices of the configuration only apply to this build: the selections of the registry are
// restored when it returns.
func BuildProblem(cfg *ProblemConfig, reg *Registry) (*Problem, error) {
	if reg == nil {
		reg = DefaultRegistry
	}
	defer reg.restoreActiveSubmodels(reg.activeSubmodels())
	if err := ApplySubmodels(reg, cfg.Submodels); err != nil {
		return nil, err
	}
	model, err := BuildGraph(cfg.Model, reg)
	if err != nil {
		return nil, err
	}
	for _, conn := range cfg.Connections {
		model.Connect(conn.Source, conn.Target)
	}
	p := NewProblem(model)
	p.InputFile = cfg.InputFile
	p.OutputFile = cfg.OutputFile
	p.Recording = cfg.Recording
	if cfg.Driver.Type == "optimizer" {
		if len(cfg.Optimization.Objective) == 0 {
			return nil, configErr("optimization.objective", fmt.Errorf("%w: no objective", ErrMalformedConfig))
		}
		if _, err := MethodFromString(cfg.Driver.Method); err != nil {
			return nil, configErr("driver.method", err)
		}
		p.Driver = &OptimizationDriver{
			Method:      cfg.Driver.Method,
			MaxIter:     cfg.Driver.MaxIter,
			Tol:         cfg.Driver.Tol,
			Penalty:     cfg.Driver.Penalty,
			DesignVars:  cfg.Optimization.DesignVariables,
			Objective:   cfg.Optimization.Objective[0],
			Constraints: cfg.Optimization.Constraints,
		}
	}
	if err := p.Setup(); err != nil {
		return nil, err
	}
	level.Info(logger).Log("subsys", "config", "title", cfg.Title, "systems", len(model.Systems()), "inputs", len(model.inputs), "outputs", len(model.outputs))
	return p, nil
}

// LoadProblem reads the configuration file and builds the problem it describes.
func LoadProblem(path string, reg *Registry) (*Problem, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return BuildProblem(cfg, reg)
}
