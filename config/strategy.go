package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Strategy is one pluggable block: a method name plus variant-specific
// parameters kept as raw YAML until the chosen variant decodes them.
type Strategy struct {
	Method string
	node   *yaml.Node
}

// NewStrategy builds a block from a method and a parameter value, which is
// encoded the way a YAML file would carry it.
func NewStrategy(method string, params any) (Strategy, error) {
	var node yaml.Node
	if params != nil {
		if err := node.Encode(params); err != nil {
			return Strategy{}, fmt.Errorf("encoding %s params: %w", method, err)
		}
	} else {
		node.Kind = yaml.MappingNode
		node.Tag = "!!map"
	}
	if node.Kind != yaml.MappingNode {
		return Strategy{}, fmt.Errorf("%w: %s params must encode to a mapping", ErrInvalid, method)
	}
	setKey(&node, "method", method)
	return Strategy{Method: method, node: &node}, nil
}

// UnmarshalYAML keeps the raw mapping and extracts the method.
func (s *Strategy) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: strategy block must be a mapping", ErrInvalid, n.Line)
	}
	var head struct {
		Method string `yaml:"method"`
	}
	if err := n.Decode(&head); err != nil {
		return err
	}
	s.Method = head.Method
	s.node = n
	return nil
}

// MarshalYAML writes the block back unchanged.
func (s Strategy) MarshalYAML() (any, error) {
	if s.node == nil {
		return map[string]string{"method": s.Method}, nil
	}
	return s.node, nil
}

// Decode decodes the block's parameters into params. Fields already set in
// params act as defaults for keys the block omits.
func (s Strategy) Decode(params any) error {
	if s.node == nil {
		return nil
	}
	if err := s.node.Decode(params); err != nil {
		return fmt.Errorf("%w: %s params: %v", ErrInvalid, s.Method, err)
	}
	return nil
}

// Enabled reports whether the block is switched on. Blocks are enabled
// unless they set enabled: false.
func (s Strategy) Enabled() bool {
	var head struct {
		Enabled *bool `yaml:"enabled"`
	}
	if s.node == nil || s.node.Decode(&head) != nil || head.Enabled == nil {
		return true
	}
	return *head.Enabled
}

// Priority returns the block's priority key, 0 when absent.
func (s Strategy) Priority() int {
	var head struct {
		Priority int `yaml:"priority"`
	}
	if s.node != nil {
		_ = s.node.Decode(&head)
	}
	return head.Priority
}

func setKey(m *yaml.Node, key, value string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = scalar(value)
			return
		}
	}
	m.Content = append(m.Content, scalar(key), scalar(value))
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
