// Package swarm implements the free-form, handoff-driven multi-agent
// executor of spec §4.5.1: a set of named agents, a synthetic
// handoff_to_agent tool injected into whichever agent currently holds
// control, and iteration/handoff/time caps bounding how long control may
// bounce between agents. Grounded on uzukizheng-trpc-agent-go's
// tool/transfer package for the synthetic-handoff-tool shape (the teacher,
// goa.design/goa-ai, has no swarm/handoff concept of its own) and on the
// teacher's runtime/agent/runtime package for the Config/defaults
// conventions reused throughout this module.
package swarm

import (
	"fmt"

	"github.com/fluxorch/agentcore/agent"
)

// Config configures one Swarm instance (spec §4.5.1 "Config: {agents,
// entryPoint, maxHandoffs (1-5, default 3), maxIterations,
// executionTimeoutMs, nodeTimeoutMs}").
type Config struct {
	// Name identifies this swarm for nesting as a multiagent.Node.
	Name string
	// Agents maps agent name to the agent instance; handoff targets are
	// resolved against these names.
	Agents map[string]*agent.Agent
	// EntryPoint is the agent name the swarm starts with.
	EntryPoint string
	// MaxHandoffs bounds the number of handoffs over the swarm's lifetime;
	// clamped to [1, 5], defaulting to 3.
	MaxHandoffs int
	// MaxIterations bounds the number of node runs (handoffs + 1);
	// defaults to 25 if unset, a generous ambient safety net beyond
	// MaxHandoffs for swarms that re-enter the same agent repeatedly.
	MaxIterations int
	// ExecutionTimeoutMs wraps the whole swarm loop; 0 means no limit.
	ExecutionTimeoutMs int
	// NodeTimeoutMs wraps each individual agent invocation; 0 means no
	// limit.
	NodeTimeoutMs int
}

func (c *Config) withDefaults() error {
	if c.Name == "" {
		c.Name = "swarm"
	}
	if c.MaxHandoffs <= 0 {
		c.MaxHandoffs = 3
	}
	if c.MaxHandoffs > 5 {
		c.MaxHandoffs = 5
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 25
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("swarm: config must name at least one agent")
	}
	if _, ok := c.Agents[c.EntryPoint]; !ok {
		return fmt.Errorf("swarm: entry point %q is not one of the configured agents", c.EntryPoint)
	}
	return nil
}
