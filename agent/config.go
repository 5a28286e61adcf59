// Package agent implements the Agent Event Loop of spec §4.4: the central
// state machine of a single agent — model call, tool batch, structured
// output coercion, retries, interrupts, and cancellation. Grounded on the
// teacher's runtime/agent/runtime package (workflow_loop.go's loop-struct
// pattern, runtime.go's phase helpers), reworked from a Temporal-durable
// workflow into spec §5's simpler "cooperative, single-threaded per
// executor task" model: one Invoke call runs its state machine on the
// calling goroutine and yields events over a channel, with context.Context
// cancellation standing in for the teacher's workflow cancellation signal.
package agent

import (
	"context"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/hooks"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/telemetry"
	"github.com/fluxorch/agentcore/tools"
)

// ConversationManager lets a caller install a policy for recovering from a
// modelContextWindowExceeded stop reason (spec §4.4 step 4). When absent,
// that stop reason is a terminal failure.
type ConversationManager interface {
	// Reduce is invoked with the current history and must return a
	// (possibly summarized/truncated) replacement history for the loop to
	// resume step 3 with. Returning an error aborts the invocation with a
	// KindContextWindowOverflow error.
	Reduce(ctx context.Context, history []core.Message) ([]core.Message, error)
}

// Config configures one Agent instance (spec §2 item 6, §6.1 "Agent::new").
type Config struct {
	// Name is the agent's human-readable identifier, exposed to hooks and
	// to swarm/graph node labeling.
	Name string
	// SystemPrompt is the fixed system/instructions text for every model
	// call this agent makes.
	SystemPrompt string
	// Model is the streaming model provider this agent calls.
	Model model.Provider
	// Tools is the tool registry consulted for every tool-use block. May be
	// nil, meaning the agent has no tools.
	Tools *tools.Registry
	// Hooks is the registry invoked at every dispatch point. May be nil,
	// meaning NewAgent allocates an empty one.
	Hooks *hooks.Registry
	// Telemetry bundles the logger/metrics/tracer facade. Defaults to
	// telemetry.NewNoop() when zero-valued.
	Telemetry telemetry.Telemetry
	// ConversationManager optionally recovers from context-window overflow
	// (spec §4.4 step 4).
	ConversationManager ConversationManager
	// MaxToolRetries bounds how many times a single tool call may be
	// retried when AfterToolCall sets Retry=true (spec §4.4 step 5c.iv).
	// Defaults to 3.
	MaxToolRetries int
	// MaxModelRetries bounds how many times the model-call phase may
	// repeat when BeforeModelCall/AfterModelCall set Retry=true. Defaults
	// to 3, preventing an unbounded loop from a misbehaving hook.
	MaxModelRetries int
	// MaxTokens and Temperature are passed through to every model.Request
	// this agent issues.
	MaxTokens   int
	Temperature float32
}

func (c *Config) withDefaults() {
	if c.Hooks == nil {
		c.Hooks = hooks.NewRegistry()
	}
	if c.Tools == nil {
		c.Tools = tools.NewRegistry()
	}
	if c.Telemetry.Logger == nil && c.Telemetry.Metrics == nil && c.Telemetry.Tracer == nil {
		c.Telemetry = telemetry.NewNoop()
	}
	if c.MaxToolRetries <= 0 {
		c.MaxToolRetries = 3
	}
	if c.MaxModelRetries <= 0 {
		c.MaxModelRetries = 3
	}
}
