package graph

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fluxorch/agentcore/multiagent"
)

// yamlDoc mirrors the declarative graph layout: node ids reference entries
// in a caller-supplied node registry rather than embedding agent
// configuration directly, since a multiagent.Node is a live Go value (an
// *agent.Agent, *swarm.Swarm, or *Graph), not something YAML can construct.
type yamlDoc struct {
	Name        string        `yaml:"name"`
	Nodes       []yamlNodeRef `yaml:"nodes"`
	Edges       []yamlEdge    `yaml:"edges"`
	EntryPoints []string      `yaml:"entryPoints"`
}

type yamlNodeRef struct {
	ID  string `yaml:"id"`
	Ref string `yaml:"ref"`
}

type yamlEdge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// LoadYAML parses a declarative graph layout and resolves each node's "ref"
// against registry, building a validated Graph (spec's DOMAIN STACK calls
// for a YAML-driven graph layout alongside the programmatic Builder API).
// registry maps a reusable node name (as referenced by a yaml "ref" field)
// to the live multiagent.Node it should run.
func LoadYAML(data []byte, registry map[string]multiagent.Node) (*Graph, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("graph: parsing yaml: %w", err)
	}

	cfg := Config{Name: doc.Name, EntryPoints: doc.EntryPoints}
	for _, n := range doc.Nodes {
		node, ok := registry[n.Ref]
		if !ok {
			return nil, fmt.Errorf("graph: yaml node %q references unknown registry entry %q", n.ID, n.Ref)
		}
		cfg.Nodes = append(cfg.Nodes, NodeSpec{ID: n.ID, Node: node})
	}
	for _, e := range doc.Edges {
		cfg.Edges = append(cfg.Edges, Edge{From: e.From, To: e.To})
	}

	return New(cfg)
}
