package graph

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// NodeDesc describes one block instance in a serialized flowgraph.
type NodeDesc struct {
	Name   string         `json:"name" yaml:"name"`
	Type   string         `json:"type" yaml:"type"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// ConnDesc describes one sample edge.
type ConnDesc struct {
	Src     string `json:"src" yaml:"src"`
	SrcPort int    `json:"srcPort,omitempty" yaml:"srcPort,omitempty"` //nolint:tagliatelle
	Dst     string `json:"dst" yaml:"dst"`
	DstPort int    `json:"dstPort,omitempty" yaml:"dstPort,omitempty"` //nolint:tagliatelle
}

// MsgDesc describes one message edge.
type MsgDesc struct {
	Src   string `json:"src" yaml:"src"`
	Group int    `json:"group,omitempty" yaml:"group,omitempty"`
	Dst   string `json:"dst" yaml:"dst"`
}

// Description is the root structure of a serialized flowgraph.
type Description struct {
	Nodes       []NodeDesc `json:"nodes" yaml:"nodes"`
	Connections []ConnDesc `json:"connections,omitempty" yaml:"connections,omitempty"`
	Messages    []MsgDesc  `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// ParseJSON decodes a JSON flowgraph description.
func ParseJSON(data []byte) (*Description, error) {
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("graph: invalid json description: %w", err)
	}
	return &d, nil
}

// ParseYAML decodes a YAML flowgraph description.
func ParseYAML(data []byte) (*Description, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("graph: invalid yaml description: %w", err)
	}
	return &d, nil
}

// Build instantiates every described node through the registry, applies
// the sample and message edges, and wires the resulting graph.
func (d *Description) Build(reg *Registry) (*Graph, error) {
	g := New()

	for _, n := range d.Nodes {
		factory := reg.Lookup(n.Type)
		if factory == nil {
			return nil, fmt.Errorf("graph: unknown block type %q for node %q", n.Type, n.Name)
		}
		w, err := factory(n.Name, Params(n.Params))
		if err != nil {
			return nil, fmt.Errorf("graph: build node %q (%s): %w", n.Name, n.Type, err)
		}
		if err := g.Add(n.Name, w); err != nil {
			return nil, err
		}
	}

	for _, c := range d.Connections {
		if err := g.Connect(c.Src, c.SrcPort, c.Dst, c.DstPort); err != nil {
			return nil, err
		}
	}

	for _, m := range d.Messages {
		if err := g.MsgConnect(m.Src, m.Group, m.Dst); err != nil {
			return nil, err
		}
	}

	if err := g.Wire(); err != nil {
		return nil, err
	}
	return g, nil
}
