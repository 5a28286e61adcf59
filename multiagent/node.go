package multiagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fluxorch/agentcore/agent"
	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
)

// Node unifies agent.Agent, swarm.Swarm, and graph.Graph (spec §4.5'
// "multiagent.Node interface unifies agent.Agent, swarm.Swarm, and
// graph.Graph so that graph nodes and swarm members may themselves be
// multi-agent executors"). Both swarm.Swarm and graph.Graph implement this
// interface directly; WrapAgent adapts a leaf agent.Agent to it.
type Node interface {
	// NodeName returns the node's identifier as used in handoff targets and
	// graph edges.
	NodeName() string
	// InvokeNode runs this node against the given input content blocks and
	// returns the node's own multi-agent stream, terminating in a single
	// EventResult element whose Result's NodeResults has exactly one entry
	// for leaf agent nodes, or many for a nested swarm/graph node.
	// invocationState is threaded through to any leaf agent.Agent.Invoke
	// call as its tool InvocationState (spec §9 recursion-depth counter).
	// A nested graph passes it to its children unchanged; a nested swarm
	// passes a copy with its SharedContext added.
	InvokeNode(ctx context.Context, input []core.ContentBlock, invocationState map[string]any) <-chan StreamEvent
}

// blocksToPrompt renders an ordered content-block collection (a
// predecessor's NodeResult.content, or a swarm handoff message) as the
// plain-text prompt a leaf agent.Agent.Invoke expects. Non-text blocks are
// rendered as a minimal bracketed placeholder; this is a deliberate
// simplification documented in DESIGN.md, since the underlying model
// contract's Request only carries core.Message history, not a single
// flattened string, and a richer mapping is future work for a multimodal
// entry point.
func blocksToPrompt(blocks []core.ContentBlock) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch v := b.(type) {
		case core.TextBlock:
			sb.WriteString(v.Text)
		case core.ToolResultBlock:
			for _, c := range v.Content {
				if c.IsJSON {
					fmt.Fprintf(&sb, "%v", c.Value)
				} else {
					sb.WriteString(c.Text)
				}
			}
		case core.ReasoningBlock:
			sb.WriteString(v.Text)
		default:
			fmt.Fprintf(&sb, "[%T]", v)
		}
	}
	return sb.String()
}

// agentNode adapts a leaf agent.Agent to the Node interface.
type agentNode struct {
	name string
	a    *agent.Agent
}

// WrapAgent adapts a single agent.Agent into a multiagent.Node, the leaf
// case of spec §4.5's node unification.
func WrapAgent(name string, a *agent.Agent) Node {
	return &agentNode{name: name, a: a}
}

func (n *agentNode) NodeName() string { return n.name }

func (n *agentNode) InvokeNode(ctx context.Context, input []core.ContentBlock, invocationState map[string]any) <-chan StreamEvent {
	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		started := time.Now()

		send := func(evt StreamEvent) bool {
			select {
			case out <- evt:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(StreamEvent{Kind: EventNodeStart, NodeID: n.name}) {
			return
		}

		prompt := blocksToPrompt(input)
		var opts []agent.InvokeOption
		if invocationState != nil {
			opts = append(opts, agent.WithInvocationState(invocationState))
		}
		var final *agent.Result
		for evt := range n.a.Invoke(ctx, prompt, opts...) {
			e := evt
			if e.Result != nil {
				final = e.Result
			}
			if !send(StreamEvent{Kind: EventNodeStream, NodeID: n.name, Event: InnerEvent{Agent: &e}}) {
				return
			}
		}

		res := nodeResultFromAgentResult(n.name, started, final)
		if !send(StreamEvent{Kind: EventNodeStop, NodeID: n.name, NodeResult: res}) {
			return
		}
		var usage model.Usage
		if final != nil {
			usage = final.Usage
		}
		send(StreamEvent{Kind: EventResult, Result: &Result{
			Status:          StatusFromNodeStatus(res.Status),
			NodeResults:     map[string]NodeResult{n.name: res},
			ExecutionOrder:  []string{n.name},
			ExecutionTime:   time.Since(started),
			AggregatedUsage: usage,
		}})
	}()
	return out
}

func nodeResultFromAgentResult(nodeID string, started time.Time, final *agent.Result) NodeResult {
	if final == nil {
		return NodeResult{NodeID: nodeID, Status: NodeCanceled, Duration: time.Since(started)}
	}
	res := NodeResult{NodeID: nodeID, Duration: time.Since(started)}
	switch final.Status {
	case agent.StatusDone:
		res.Status = NodeCompleted
		res.Content = final.Message.Blocks
	case agent.StatusInterrupted:
		res.Status = NodeInterrupted
	case agent.StatusCanceled:
		res.Status = NodeCanceled
	default:
		res.Status = NodeFailed
		res.Error = final.Err
	}
	return res
}

func StatusFromNodeStatus(s NodeStatus) Status {
	switch s {
	case NodeCompleted:
		return StatusCompleted
	case NodeInterrupted:
		return StatusInterrupted
	case NodeCanceled:
		return StatusCanceled
	default:
		return StatusFailed
	}
}
