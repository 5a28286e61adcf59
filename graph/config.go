// Package graph implements the static-DAG multi-agent executor of spec
// §4.5.2: construction-time validation (unique node ids, known edge
// endpoints, Kahn's-algorithm acyclicity, non-empty entry set), and
// execution that starts the frontier concurrently and lets independent
// branches run in parallel, joining at shared successors. Grounded on
// uzukizheng-trpc-agent-go's agent/parallelagent package for the
// concurrent-branch/event-merge shape (the teacher, goa.design/goa-ai, has
// no graph/DAG concept of its own), and on the teacher's runtime/agent
// package for the Config/Builder conventions reused throughout.
package graph

import (
	"fmt"
	"sort"

	"github.com/fluxorch/agentcore/multiagent"
)

// NodeSpec names one graph node and the executor (leaf agent, nested swarm,
// or nested graph) that runs it (spec §4.5.2 "Config: {nodes: [{id,
// agentOrExecutor}], ...}").
type NodeSpec struct {
	ID   string
	Node multiagent.Node
}

// Edge is a directed dependency: To waits for From to complete.
type Edge struct {
	From string
	To   string
}

// Config is the validated construction input for a Graph (spec §4.5.2).
type Config struct {
	// Name identifies this graph for nesting as a multiagent.Node.
	Name        string
	Nodes       []NodeSpec
	Edges       []Edge
	EntryPoints []string
}

func (c *Config) validate() error {
	ids := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.ID == "" {
			return fmt.Errorf("graph: node with empty id")
		}
		if ids[n.ID] {
			return fmt.Errorf("graph: duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
	}
	for _, e := range c.Edges {
		if !ids[e.From] {
			return fmt.Errorf("graph: edge references unknown node %q", e.From)
		}
		if !ids[e.To] {
			return fmt.Errorf("graph: edge references unknown node %q", e.To)
		}
	}
	if len(c.EntryPoints) == 0 {
		return fmt.Errorf("graph: entry point set must be non-empty")
	}
	entrySet := make(map[string]bool, len(c.EntryPoints))
	for _, ep := range c.EntryPoints {
		if !ids[ep] {
			return fmt.Errorf("graph: entry point %q is not a known node", ep)
		}
		entrySet[ep] = true
	}

	indegree := make(map[string]int, len(ids))
	adj := make(map[string][]string, len(ids))
	for id := range ids {
		indegree[id] = 0
	}
	for _, e := range c.Edges {
		adj[e.From] = append(adj[e.From], e.To)
		indegree[e.To]++
	}

	for id := range ids {
		if !entrySet[id] && indegree[id] == 0 {
			return fmt.Errorf("graph: node %q has no predecessors and is not an entry point", id)
		}
	}

	// Kahn's topological sort (spec §4.5.2 "no cycles (Kahn's topological
	// sort must cover every node)"); deterministic tie-break by sorting the
	// ready queue, matching the lexicographic predecessor-ordering tie-break
	// used at execution time.
	indeg := make(map[string]int, len(indegree))
	for id, d := range indegree {
		indeg[id] = d
	}
	var queue []string
	for id, d := range indeg {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		succ := append([]string(nil), adj[id]...)
		sort.Strings(succ)
		for _, s := range succ {
			indeg[s]--
			if indeg[s] == 0 {
				queue = append(queue, s)
				sort.Strings(queue)
			}
		}
	}
	if visited != len(ids) {
		return fmt.Errorf("graph: cycle detected among the configured nodes")
	}
	return nil
}

// Builder provides the fluent construction API of spec §6.1
// ("Graph::builder().addNode(id, agent).addEdge(from,to).entryPoint(id).build()").
type Builder struct {
	cfg Config
}

// NewBuilder starts a fluent Graph construction.
func NewBuilder(name string) *Builder {
	return &Builder{cfg: Config{Name: name}}
}

// AddNode registers a node under id.
func (b *Builder) AddNode(id string, node multiagent.Node) *Builder {
	b.cfg.Nodes = append(b.cfg.Nodes, NodeSpec{ID: id, Node: node})
	return b
}

// AddEdge declares that to depends on from.
func (b *Builder) AddEdge(from, to string) *Builder {
	b.cfg.Edges = append(b.cfg.Edges, Edge{From: from, To: to})
	return b
}

// EntryPoint marks id as one of the graph's starting nodes.
func (b *Builder) EntryPoint(id string) *Builder {
	b.cfg.EntryPoints = append(b.cfg.EntryPoints, id)
	return b
}

// Build validates the accumulated configuration and constructs a Graph.
func (b *Builder) Build() (*Graph, error) {
	if err := b.cfg.validate(); err != nil {
		return nil, err
	}
	return &Graph{cfg: b.cfg}, nil
}

// New validates cfg directly (an alternative to Builder for callers that
// already have a fully-formed Config, e.g. one loaded via LoadYAML).
func New(cfg Config) (*Graph, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Graph{cfg: cfg}, nil
}
