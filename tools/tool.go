// Package tools implements the tool contract and registry of spec §4.2: a
// Tool behavioral trait, a schema-validated Tool factory, a FunctionTool
// wrapper matching the spec's value-coercion rules, and a ToolRegistry with
// insert-time validation. Grounded on the teacher's runtime/agent/tools
// package shape, generalized from Goa-generated codecs to a single runtime
// schema compiler (santhosh-tekuri/jsonschema/v6).
package tools

import (
	"context"

	"github.com/fluxorch/agentcore/core"
)

// StreamItem is a single element of the lazy sequence a Tool's Stream
// method produces. Exactly one of Progress or Result is set: Progress
// elements forward to the ToolStreamObserver hook as they arrive; the
// single Result element (always last, always present exactly once) is the
// terminal core.ToolResultBlock the loop appends to history. Modeling both
// cases as one sum type follows spec §9's design note for ports of
// generator/promise/value tool callbacks.
type StreamItem struct {
	// Progress carries a transient progress payload. Nil on the terminal item.
	Progress any
	// Result carries the terminal tool result. Nil on every non-terminal item.
	Result *core.ToolResultBlock
}

// Context is the input to Tool.Stream: the requested tool use, any
// invocation-scoped state threaded by the caller, and the agent handle the
// invocation is running under.
type Context struct {
	// ToolUse is the tool-use block the model requested.
	ToolUse core.ToolUseBlock
	// InvocationState carries caller-defined state for this invocation
	// (e.g. an agent-as-tool recursion depth counter, spec §9).
	InvocationState map[string]any
	// Agent is the minimal agent handle the tool is executing under.
	Agent AgentHandle
}

// AgentHandle is the minimal agent view a Tool receives. It mirrors
// hooks.AgentHandle to avoid tools importing the agent package (which
// imports tools), matching the cyclic-reference avoidance design note in
// spec §9.
type AgentHandle interface {
	AgentID() string
	AgentName() string
}

// Tool is the behavioral trait every tool implementation satisfies (spec
// §4.2). Stream is the canonical invocation surface; Invoke (see Invokable)
// is an optional typed fast-path for callers that don't need streaming
// progress.
type Tool interface {
	// Name returns the tool's identifier; must satisfy core.ValidToolName.
	Name() string
	// Description returns the tool's human-readable description, or "" when
	// none was configured.
	Description() string
	// Spec returns the published ToolSpec (name, description, input schema).
	Spec() core.ToolSpec
	// Stream executes the tool and returns a lazy sequence of StreamItem
	// values. The channel closes immediately after the single item whose
	// Result field is set; the caller (the agent loop's tool phase) must
	// drain every item before treating the tool call as complete.
	Stream(ctx context.Context, tc Context) <-chan StreamItem
}

// Invokable is satisfied by tools that additionally expose a typed
// synchronous invocation surface (spec §4.2: "Optionally invoke(typed
// input) -> typed output").
type Invokable interface {
	Tool
	// Invoke executes the tool synchronously against a pre-decoded input
	// and returns a pre-encoding output value plus any error.
	Invoke(ctx context.Context, input any) (any, error)
}
