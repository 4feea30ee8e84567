package oad

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration keys of a model node which are not children.
const (
	keyID              = "id"
	keyNonlinearSolver = "nonlinear_solver"
	keyLinearSolver    = "linear_solver"
	keyConnections     = "connections"
)

// DriverConfig selects how the problem is run.
type DriverConfig struct {
	Type    string  `mapstructure:"type" yaml:"type" validate:"omitempty,oneof=run_once optimizer"`
	Method  string  `mapstructure:"method" yaml:"method"`
	MaxIter int     `mapstructure:"maxiter" yaml:"maxiter" validate:"gte=0"`
	Tol     float64 `mapstructure:"tol" yaml:"tol" validate:"gte=0"`
	Penalty float64 `mapstructure:"penalty" yaml:"penalty" validate:"gte=0"`
}

// OptimizationConfig is the optimization section of a problem file.
type OptimizationConfig struct {
	DesignVariables []DesignVar  `mapstructure:"design_variables" yaml:"design_variables" validate:"dive"`
	Constraints     []Constraint `mapstructure:"constraints" yaml:"constraints" validate:"dive"`
	Objective       []Objective  `mapstructure:"objective" yaml:"objective" validate:"max=1,dive"`
}

// ModelConfig is a node of the model tree: a leaf with an identifier and its options, or a
// group with its solver, connections and children in declaration order.
type ModelConfig struct {
	Name        string
	ID          string
	Options     map[string]any
	Solver      *SolverConfig
	Connections []Connection
	Children    []ModelConfig
}

// IsGroup returns whether the node is a group.
func (m ModelConfig) IsGroup() bool {
	return m.ID == ""
}

// ProblemConfig is a problem configuration file.
type ProblemConfig struct {
	Title        string             `mapstructure:"title" yaml:"title"`
	InputFile    string             `mapstructure:"input_file" yaml:"input_file"`
	OutputFile   string             `mapstructure:"output_file" yaml:"output_file"`
	Driver       DriverConfig       `mapstructure:"driver" yaml:"driver"`
	Connections  []Connection       `mapstructure:"connections" yaml:"connections" validate:"dive"`
	Optimization OptimizationConfig `mapstructure:"optimization" yaml:"optimization"`
	Submodels    map[string]string  `mapstructure:"-" yaml:"submodels"`
	Recording    RecordConfig       `mapstructure:"recording" yaml:"recording"`
	Model        ModelConfig        `mapstructure:"-" yaml:"-"`
}

// LoadConfig reads a problem configuration file. Relative file paths of the configuration are
// resolved against its directory.
func LoadConfig(path string) (*ProblemConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErr(path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, configErr(path, err)
	}
	dir := filepath.Dir(path)
	cfg.InputFile = resolvePath(dir, cfg.InputFile)
	cfg.OutputFile = resolvePath(dir, cfg.OutputFile)
	return cfg, nil
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// ParseConfig parses a problem configuration. Values may be overridden from the environment,
// e.g. OAD_DRIVER_MAXITER=100.
func ParseConfig(data []byte) (*ProblemConfig, error) {
	// Service identifiers and variable names contain dots.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigType("yaml")
	v.SetEnvPrefix("OAD")
	v.SetEnvKeyReplacer(strings.NewReplacer("::", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"title", "input_file", "output_file", "driver::type", "driver::method", "driver::maxiter", "driver::tol", "driver::penalty"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	cfg := &ProblemConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	// Identifiers are case sensitive, and viper lower-cases the keys.
	if sub := mappingValue(&doc, "submodels"); sub != nil {
		if err := sub.Decode(&cfg.Submodels); err != nil {
			return nil, configErr("submodels", fmt.Errorf("%w: %v", ErrMalformedConfig, err))
		}
	}
	root := mappingValue(&doc, "model")
	if root == nil {
		return nil, configErr("model", fmt.Errorf("%w: no model", ErrMalformedConfig))
	}
	model, err := parseModelNode("model", root)
	if err != nil {
		return nil, err
	}
	if !model.IsGroup() {
		return nil, configErr("model", fmt.Errorf("%w: the model must be a group", ErrMalformedConfig))
	}
	cfg.Model = model
	return cfg, nil
}

// mappingValue returns the value of key in the document mapping, or nil.
func mappingValue(doc *yaml.Node, key string) *yaml.Node {
	n := doc
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// parseModelNode walks the model tree, keeping the declaration order of the children.
func parseModelNode(path string, n *yaml.Node) (ModelConfig, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	name := path[strings.LastIndex(path, ".")+1:]
	node := ModelConfig{Name: name}
	if n.Kind != yaml.MappingNode {
		return node, configErr(path, fmt.Errorf("%w: expected a mapping (line %d)", ErrMalformedConfig, n.Line))
	}
	if id := mappingValue(n, keyID); id != nil {
		if id.Kind != yaml.ScalarNode || id.Value == "" {
			return node, configErr(path, fmt.Errorf("%w: invalid identifier (line %d)", ErrMalformedConfig, id.Line))
		}
		node.ID = id.Value
		node.Options = make(map[string]any)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if key == keyID {
				continue
			}
			var val any
			if err := n.Content[i+1].Decode(&val); err != nil {
				return node, configErr(path+"."+key, fmt.Errorf("%w: %v", ErrMalformedConfig, err))
			}
			node.Options[key] = val
		}
		return node, nil
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		childPath := path + "." + key
		switch key {
		case keyNonlinearSolver:
			solver := &SolverConfig{}
			switch val.Kind {
			case yaml.ScalarNode:
				solver.Type = val.Value
			case yaml.MappingNode:
				if err := val.Decode(solver); err != nil {
					return node, configErr(childPath, fmt.Errorf("%w: %v", ErrMalformedConfig, err))
				}
			default:
				return node, configErr(childPath, fmt.Errorf("%w: invalid solver (line %d)", ErrMalformedConfig, val.Line))
			}
			node.Solver = solver
		case keyLinearSolver:
			level.Info(logger).Log("subsys", "config", "group", path, "ignored", keyLinearSolver)
		case keyConnections:
			if err := val.Decode(&node.Connections); err != nil {
				return node, configErr(childPath, fmt.Errorf("%w: %v", ErrMalformedConfig, err))
			}
			for _, conn := range node.Connections {
				if conn.Source == "" || conn.Target == "" {
					return node, configErr(childPath, fmt.Errorf("%w: incomplete connection (line %d)", ErrMalformedConfig, val.Line))
				}
			}
		default:
			if strings.Contains(key, ".") {
				return node, configErr(childPath, fmt.Errorf("%w: system names cannot contain dots", ErrMalformedConfig))
			}
			if val.Kind != yaml.MappingNode && val.Kind != yaml.AliasNode {
				return node, configErr(childPath, fmt.Errorf("%w: `%s` is neither a component nor a group (line %d)", ErrMalformedConfig, key, val.Line))
			}
			child, err := parseModelNode(childPath, val)
			if err != nil {
				return node, err
			}
			node.Children = append(node.Children, child)
		}
	}
	return node, nil
}
