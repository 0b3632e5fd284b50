// Package config provides configuration loading and validation for
// evolution runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid marks configuration errors: missing or malformed keys,
// unregistered strategy names and inconsistent seeded populations. They
// are fatal at startup.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all run parameters.
type Config struct {
	ExperimentName string `yaml:"experiment_name"`
	InheritsFrom   string `yaml:"inherits_from,omitempty"`
	Seed           int64  `yaml:"seed"`
	Generations    int    `yaml:"n_generations"`

	// Grid
	WorldWidth      int  `yaml:"world_width"`
	WorldHeight     int  `yaml:"world_height"`
	IncludeDiagonal bool `yaml:"include_diagonal_cells"`

	// Population and genetics
	PopSize            int     `yaml:"pop_size"`
	StepsPerGeneration int     `yaml:"world_steps_per_generation"`
	HiddenLayers       []int   `yaml:"hidden_layer_dims"`
	MutationRate       float64 `yaml:"mutation_rate"`

	Selection    Strategy            `yaml:"selection_config"`
	Repopulation Strategy            `yaml:"repop_config"`
	WorldGen     Strategy            `yaml:"world_gen"`
	Callbacks    map[string]Strategy `yaml:"callbacks,omitempty"`

	SeedPopulation *SeedPopulation `yaml:"seed_population,omitempty"`

	CheckInvariants bool   `yaml:"check_invariants"`
	OutputDir       string `yaml:"output_dir"`

	// Top-level keys present in the source, nil for configs built in code.
	present map[string]bool
}

// SeedPopulation points at stored genomes to start the run from.
type SeedPopulation struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	RunID      string `yaml:"run_id"`
	Generation *int   `yaml:"generation,omitempty"` // latest when omitted
}

// requiredKeys must be present in any parsed configuration.
var requiredKeys = []string{
	"n_generations",
	"world_width",
	"world_height",
	"include_diagonal_cells",
	"hidden_layer_dims",
	"mutation_rate",
	"pop_size",
	"world_steps_per_generation",
	"selection_config",
	"repop_config",
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	root, err := parseNode(defaultsYAML, "embedded defaults")
	if err != nil {
		return nil, err
	}
	return decode(root)
}

// Load reads path with its inherits_from chain and overlays the result on the
// embedded defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	root, err := parseNode(defaultsYAML, "embedded defaults")
	if err != nil {
		return nil, err
	}
	if path != "" {
		file, err := loadChain(path, nil)
		if err != nil {
			return nil, err
		}
		if root, err = merge(root, file, ""); err != nil {
			return nil, err
		}
	}
	cfg, err := decode(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a single document without defaults or inheritance, so
// missing required keys are reported.
func Parse(data []byte) (*Config, error) {
	root, err := parseNode(data, "config")
	if err != nil {
		return nil, err
	}
	cfg, err := decode(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadChain resolves parents as <dir>/<name>.yaml, root ancestor first.
func loadChain(path string, seen []string) (*yaml.Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if slices.Contains(seen, abs) {
		return nil, fmt.Errorf("%w: inherits_from cycle: %s -> %s", ErrInvalid, strings.Join(seen, " -> "), abs)
	}
	seen = append(seen, abs)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	node, err := parseNode(data, path)
	if err != nil {
		return nil, err
	}

	parent := lookup(node, "inherits_from")
	if parent == nil || parent.Value == "" {
		return node, nil
	}
	base, err := loadChain(filepath.Join(filepath.Dir(path), parent.Value+".yaml"), seen)
	if err != nil {
		return nil, fmt.Errorf("%s inherits_from %s: %w", path, parent.Value, err)
	}
	return merge(base, node, "")
}

// parseNode returns the top-level mapping of a document. An empty document
// is an empty mapping.
func parseNode(data []byte, source string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalid, source, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: top level must be a mapping", ErrInvalid, source)
	}
	return root, nil
}

// merge overlays src on dst key by key. Nested mappings merge recursively;
// any other value in src replaces the one in dst. A key holding a mapping
// on one side and something else on the other is an error.
func merge(dst, src *yaml.Node, prefix string) (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: slices.Clone(dst.Content)}
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, val := src.Content[i], src.Content[i+1]
		name := prefix + key.Value

		j := indexOf(out, key.Value)
		if j < 0 {
			out.Content = append(out.Content, key, val)
			continue
		}
		old := out.Content[j+1]
		if (old.Kind == yaml.MappingNode) != (val.Kind == yaml.MappingNode) {
			return nil, fmt.Errorf("%w: cannot merge %s: mapping and non-mapping values", ErrInvalid, name)
		}
		if val.Kind == yaml.MappingNode {
			m, err := merge(old, val, name+".")
			if err != nil {
				return nil, err
			}
			val = m
		}
		out.Content[j+1] = val
	}
	return out, nil
}

func indexOf(m *yaml.Node, key string) int {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	if i := indexOf(m, key); i >= 0 {
		return m.Content[i+1]
	}
	return nil
}

func decode(root *yaml.Node) (*Config, error) {
	cfg := &Config{}
	if err := root.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.present = make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		cfg.present[root.Content[i].Value] = true
	}
	return cfg, nil
}

// Validate reports every missing required key and out-of-range value.
func (c *Config) Validate() error {
	var problems []string
	if c.present != nil {
		for _, k := range requiredKeys {
			if !c.present[k] {
				problems = append(problems, "missing "+k)
			}
		}
	}
	if len(problems) == 0 {
		problems = append(problems, c.rangeProblems()...)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) rangeProblems() []string {
	var p []string
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		p = append(p, fmt.Sprintf("world size %dx%d must be positive", c.WorldWidth, c.WorldHeight))
	}
	if c.PopSize <= 0 {
		p = append(p, fmt.Sprintf("pop_size %d must be positive", c.PopSize))
	}
	if c.PopSize > c.WorldWidth*c.WorldHeight {
		p = append(p, fmt.Sprintf("pop_size %d exceeds %d cells", c.PopSize, c.WorldWidth*c.WorldHeight))
	}
	if c.Generations < 0 {
		p = append(p, fmt.Sprintf("n_generations %d is negative", c.Generations))
	}
	if c.StepsPerGeneration < 0 {
		p = append(p, fmt.Sprintf("world_steps_per_generation %d is negative", c.StepsPerGeneration))
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		p = append(p, fmt.Sprintf("mutation_rate %g outside [0,1]", c.MutationRate))
	}
	for i, n := range c.HiddenLayers {
		if n <= 0 {
			p = append(p, fmt.Sprintf("hidden_layer_dims[%d] = %d must be positive", i, n))
		}
	}
	if c.Selection.Method == "" {
		p = append(p, "selection_config.method is required")
	}
	if c.Repopulation.Method == "" {
		p = append(p, "repop_config.method is required")
	}
	if s := c.SeedPopulation; s != nil && s.RunID == "" {
		p = append(p, "seed_population.run_id is required")
	}
	return p
}

// Has reports whether key was set in the source document. Configs built in
// code report every key as set.
func (c *Config) Has(key string) bool {
	return c.present == nil || c.present[key]
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
