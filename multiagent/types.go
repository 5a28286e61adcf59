// Package multiagent defines the shared contract the swarm and graph
// executors of spec §4.5 both implement and stream over: NodeResult,
// MultiAgentResult, the multiAgentStreamEvent tagged-variant set, and the
// Node interface that lets a graph node or swarm member itself be a nested
// multi-agent executor (spec §9 "agent-as-tool"/nested-executor pattern).
// Grounded on the teacher's runtime/agent/runtime result-shape conventions,
// generalized to the swarm/graph domain absent from the teacher (enriched
// from uzukizheng-trpc-agent-go's agent/parallelagent and tool/transfer
// packages, the closest pack analogues for handoff/parallel-node semantics).
package multiagent

import (
	"time"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
)

// NodeStatus is the terminal disposition of one node's run within a
// multi-agent execution (spec §3 "NodeResult").
type NodeStatus string

const (
	NodeCompleted   NodeStatus = "completed"
	NodeFailed      NodeStatus = "failed"
	NodeInterrupted NodeStatus = "interrupted"
	NodeCanceled    NodeStatus = "canceled"
)

// NodeResult is the outcome of one node invocation within a swarm or graph
// execution (spec §3).
type NodeResult struct {
	NodeID   string
	Status   NodeStatus
	Duration time.Duration
	Content  []core.ContentBlock
	Error    error
}

// Status is the terminal disposition of an entire multi-agent execution
// (spec §3 "MultiAgentResult").
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
	StatusCanceled    Status = "canceled"
)

// Result is the terminal value of a swarm or graph Invoke call (spec §3
// "MultiAgentResult").
type Result struct {
	Status         Status
	NodeResults    map[string]NodeResult
	ExecutionOrder []string
	ExecutionTime  time.Duration
	AggregatedUsage model.Usage
}

// EventKind discriminates the multiAgentStreamEvent tagged variant set of
// spec §4.5.
type EventKind string

const (
	EventNodeStart     EventKind = "node_start"
	EventNodeStream    EventKind = "node_stream"
	EventNodeStop      EventKind = "node_stop"
	EventHandoff       EventKind = "handoff"
	EventNodeInterrupt EventKind = "node_interrupt"
	EventNodeCancel    EventKind = "node_cancel"
	EventResult        EventKind = "result"
)

// InnerEvent is the wrapped payload of a multiAgentNodeStreamEvent: either a
// single-agent consumer event, or — when the node is itself a nested
// multi-agent executor — another StreamEvent, tagged with the child's own
// kind and the innermost nodeId preserved (spec §4.5 "the innermost nodeId
// is preserved").
type InnerEvent struct {
	// Agent holds the *agent.Event of a leaf (single-agent) node; the node
	// built by WrapAgent populates it. Callers type-assert it to
	// *agent.Event.
	Agent any
	// Nested is reserved for wrapping an event of a nested multi-agent
	// executor. No executor in this module sets it: graph and swarm forward
	// a nested node's StreamEvents as they are, unwrapped, with the
	// innermost NodeID they already carry.
	Nested *StreamEvent
}

// StreamEvent is a single element of the lazy sequence Invoke produces for
// a swarm or graph execution (spec §4.5).
type StreamEvent struct {
	Kind EventKind

	// EventNodeStart / EventNodeStream / EventNodeStop / EventNodeInterrupt / EventNodeCancel
	NodeID string

	// EventNodeStream
	Event InnerEvent

	// EventNodeStop
	NodeResult NodeResult

	// EventHandoff
	FromNodeIDs []string
	ToNodeIDs   []string
	Message     string

	// EventNodeInterrupt
	InterruptID string

	// EventResult (terminal)
	Result *Result
}

// NestedSwarmNodeID is a reserved node id for stream events of a nested
// swarm that carry no node id of their own (Open Question decision recorded
// in DESIGN.md). No executor in this module emits it: a nested swarm's
// events carry the names of its member agents as their NodeID.
const NestedSwarmNodeID = "__swarm_nested__"
