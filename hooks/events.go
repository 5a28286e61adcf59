package hooks

import (
	"github.com/fluxorch/agentcore/core"
)

// EventKind discriminates the HookEvent variant set from spec §3. Unlike the
// teacher's class-hierarchy-per-event approach (runtime/agent/hooks/events.go),
// Go has no inheritance, so each kind is modeled as a Go type with a single
// EventKind constant and a corresponding payload struct; the design-notes
// section of the spec calls this out explicitly as the recommended
// re-architecture (§9 "Class-based event hierarchy").
type EventKind string

const (
	KindInitialized        EventKind = "initialized"
	KindBeforeInvocation    EventKind = "before_invocation"
	KindAfterInvocation     EventKind = "after_invocation"
	KindMessageAdded        EventKind = "message_added"
	KindBeforeModelCall     EventKind = "before_model_call"
	KindAfterModelCall      EventKind = "after_model_call"
	KindBeforeToolCall      EventKind = "before_tool_call"
	KindAfterToolCall       EventKind = "after_tool_call"
	KindBeforeTools         EventKind = "before_tools"
	KindAfterTools          EventKind = "after_tools"
	KindModelStreamObserver EventKind = "model_stream_observer"
	KindContentBlockComplete EventKind = "content_block_complete"
	KindModelMessage        EventKind = "model_message"
	KindToolResult          EventKind = "tool_result"
	KindToolStreamObserver  EventKind = "tool_stream_observer"
	KindAgentResult         EventKind = "agent_result"
)

// reverseKinds holds the phases spec §4.1 requires to dispatch in reverse
// subscription order, so that resource-acquiring Before* hooks unwind in the
// opposite order their matching After* hooks fire (LIFO), the same
// guarantee the teacher's runtime gives via Temporal's deferred-activity
// pattern.
var reverseKinds = map[EventKind]bool{
	KindAfterInvocation: true,
	KindAfterModelCall:  true,
	KindAfterToolCall:   true,
	KindAfterTools:      true,
}

// IsReverse reports whether kind must be dispatched to subscribers in
// reverse registration order.
func IsReverse(kind EventKind) bool {
	return reverseKinds[kind]
}

// AgentHandle is the minimal view of an Agent that hook payloads carry. It
// avoids a structural import cycle between hooks and agent (the agent
// package subscribes on and dispatches through a hooks.Registry, so hooks
// cannot import agent back) — the same "payloads carry the agent handle but
// never participate in structural cycles" rule spec §9 calls out.
type AgentHandle interface {
	// AgentID returns the stable identifier of the agent instance.
	AgentID() string
	// AgentName returns the human-readable name configured for the agent.
	AgentName() string
}

// Event is the interface every concrete payload type implements. Handlers
// type-switch on the concrete type to access kind-specific fields, matching
// the teacher's hooks.Event convention (runtime/agent/hooks/events.go).
type Event interface {
	// Kind returns the discriminator for this event.
	Kind() EventKind
	// Agent returns the agent handle this event was raised for.
	Agent() AgentHandle
}

type base struct {
	kind  EventKind
	agent AgentHandle
}

func (b base) Kind() EventKind    { return b.kind }
func (b base) Agent() AgentHandle { return b.agent }

// InitializedEvent fires once, the first time an Agent is invoked.
type InitializedEvent struct{ base }

// BeforeInvocationEvent fires at the start of every invocation.
type BeforeInvocationEvent struct{ base }

// AfterInvocationEvent fires exactly once per invocation regardless of
// outcome (success, failure, interrupt, or cancellation).
type AfterInvocationEvent struct {
	base
	// Err carries the terminal error, if any.
	Err error
	// Canceled reports whether the invocation ended via cancellation.
	Canceled bool
	// Interrupted reports whether the invocation ended via an interrupt.
	Interrupted bool
}

// MessageAddedEvent fires whenever a Message is appended to the agent's
// history (user prompt, assistant reply, or tool-result batch).
type MessageAddedEvent struct {
	base
	Message core.Message
}

// BeforeModelCallEvent fires before every model invocation. Setting Retry
// after dispatch re-enters the model call phase (spec §4.4 step 3a).
type BeforeModelCallEvent struct {
	base
	// Retry, if set true by a subscriber, causes the loop to stay in the
	// model-call phase after AfterModelCall dispatches.
	Retry bool
}

// AfterModelCallEvent fires after a model call completes or fails.
type AfterModelCallEvent struct {
	base
	// StopReason is the model's reported stop reason. It is empty when the
	// provider call failed or was canceled; on a context-window overflow it
	// is "modelContextWindowExceeded" and Err is set as well.
	StopReason string
	// Err carries a transport/provider error, if any.
	Err error
	// Retry, if set true by a subscriber, causes the loop to repeat the
	// model-call phase (spec §4.4 step 3d, and §7 "Model transport error").
	Retry bool
}

// BeforeToolsEvent fires once per tool phase, before any individual tool
// call dispatches.
type BeforeToolsEvent struct {
	base
	Message core.Message
}

// AfterToolsEvent fires once per tool phase, after every tool result has
// been appended to history.
type AfterToolsEvent struct {
	base
	Message core.Message
}

// BeforeToolCallEvent fires before a single tool invocation. Subscribers may
// set CancelTool to synthesize an error result and skip execution.
type BeforeToolCallEvent struct {
	base
	ToolUse core.ToolUseBlock
	// ToolFound reports whether the tool name resolved in the registry.
	ToolFound bool
	// CancelTool, if set non-empty by a subscriber, causes the loop to skip
	// execution and synthesize an error tool-result with this message
	// (spec §4.4 step 5c.i).
	CancelTool string
}

// AfterToolCallEvent fires after a single tool invocation completes.
// Subscribers may set Retry to re-execute the same tool call.
type AfterToolCallEvent struct {
	base
	ToolUse core.ToolUseBlock
	Result  core.ToolResultBlock
	Err     error
	// Retry, if set true by a subscriber, re-executes this tool call with
	// the same input, bounded by the loop's max-retry cap.
	Retry bool
}

// ModelStreamObserverEvent forwards a single transient model stream delta.
type ModelStreamObserverEvent struct {
	base
	Delta any
}

// ContentBlockCompleteEvent fires once a streamed content block is fully
// assembled.
type ContentBlockCompleteEvent struct {
	base
	Block core.ContentBlock
	Index int
}

// ModelMessageEvent fires when the assistant message for a model call has
// been assembled from its completed blocks, before it is appended to
// history.
type ModelMessageEvent struct {
	base
	Message    core.Message
	StopReason string
}

// ToolResultEvent fires once per completed tool invocation, after
// AfterToolCall.
type ToolResultEvent struct {
	base
	Result core.ToolResultBlock
}

// ToolStreamObserverEvent forwards a single ToolStreamEvent emitted by a
// tool's Stream method while it runs.
type ToolStreamObserverEvent struct {
	base
	ToolUseID string
	Data      any
}

// AgentResultEvent fires once per invocation, just before AfterInvocation.
// StopReason carries the invocation's terminal status (the agent package's
// Status as a string, e.g. "done" or "failed"), not the model's stop reason;
// the full result is not attached.
type AgentResultEvent struct {
	base
	StopReason string
}

func newBase(kind EventKind, agent AgentHandle) base { return base{kind: kind, agent: agent} }

// NewInitialized constructs an InitializedEvent for agent.
func NewInitialized(agent AgentHandle) *InitializedEvent {
	return &InitializedEvent{base: newBase(KindInitialized, agent)}
}

// NewBeforeInvocation constructs a BeforeInvocationEvent for agent.
func NewBeforeInvocation(agent AgentHandle) *BeforeInvocationEvent {
	return &BeforeInvocationEvent{base: newBase(KindBeforeInvocation, agent)}
}

// NewAfterInvocation constructs an AfterInvocationEvent for agent.
func NewAfterInvocation(agent AgentHandle) *AfterInvocationEvent {
	return &AfterInvocationEvent{base: newBase(KindAfterInvocation, agent)}
}

// NewMessageAdded constructs a MessageAddedEvent for agent.
func NewMessageAdded(agent AgentHandle, msg core.Message) *MessageAddedEvent {
	return &MessageAddedEvent{base: newBase(KindMessageAdded, agent), Message: msg}
}

// NewBeforeModelCall constructs a BeforeModelCallEvent for agent.
func NewBeforeModelCall(agent AgentHandle) *BeforeModelCallEvent {
	return &BeforeModelCallEvent{base: newBase(KindBeforeModelCall, agent)}
}

// NewAfterModelCall constructs an AfterModelCallEvent for agent.
func NewAfterModelCall(agent AgentHandle, stopReason string, err error) *AfterModelCallEvent {
	return &AfterModelCallEvent{base: newBase(KindAfterModelCall, agent), StopReason: stopReason, Err: err}
}

// NewBeforeTools constructs a BeforeToolsEvent for agent.
func NewBeforeTools(agent AgentHandle, msg core.Message) *BeforeToolsEvent {
	return &BeforeToolsEvent{base: newBase(KindBeforeTools, agent), Message: msg}
}

// NewAfterTools constructs an AfterToolsEvent for agent.
func NewAfterTools(agent AgentHandle, msg core.Message) *AfterToolsEvent {
	return &AfterToolsEvent{base: newBase(KindAfterTools, agent), Message: msg}
}

// NewBeforeToolCall constructs a BeforeToolCallEvent for agent.
func NewBeforeToolCall(agent AgentHandle, toolUse core.ToolUseBlock, found bool) *BeforeToolCallEvent {
	return &BeforeToolCallEvent{base: newBase(KindBeforeToolCall, agent), ToolUse: toolUse, ToolFound: found}
}

// NewAfterToolCall constructs an AfterToolCallEvent for agent.
func NewAfterToolCall(agent AgentHandle, toolUse core.ToolUseBlock, result core.ToolResultBlock, err error) *AfterToolCallEvent {
	return &AfterToolCallEvent{base: newBase(KindAfterToolCall, agent), ToolUse: toolUse, Result: result, Err: err}
}

// NewModelStreamObserver constructs a ModelStreamObserverEvent for agent.
func NewModelStreamObserver(agent AgentHandle, delta any) *ModelStreamObserverEvent {
	return &ModelStreamObserverEvent{base: newBase(KindModelStreamObserver, agent), Delta: delta}
}

// NewContentBlockComplete constructs a ContentBlockCompleteEvent for agent.
func NewContentBlockComplete(agent AgentHandle, block core.ContentBlock, index int) *ContentBlockCompleteEvent {
	return &ContentBlockCompleteEvent{base: newBase(KindContentBlockComplete, agent), Block: block, Index: index}
}

// NewModelMessage constructs a ModelMessageEvent for agent.
func NewModelMessage(agent AgentHandle, msg core.Message, stopReason string) *ModelMessageEvent {
	return &ModelMessageEvent{base: newBase(KindModelMessage, agent), Message: msg, StopReason: stopReason}
}

// NewToolResult constructs a ToolResultEvent for agent.
func NewToolResult(agent AgentHandle, result core.ToolResultBlock) *ToolResultEvent {
	return &ToolResultEvent{base: newBase(KindToolResult, agent), Result: result}
}

// NewToolStreamObserver constructs a ToolStreamObserverEvent for agent.
func NewToolStreamObserver(agent AgentHandle, toolUseID string, data any) *ToolStreamObserverEvent {
	return &ToolStreamObserverEvent{base: newBase(KindToolStreamObserver, agent), ToolUseID: toolUseID, Data: data}
}

// NewAgentResult constructs an AgentResultEvent for agent.
func NewAgentResult(agent AgentHandle, stopReason string) *AgentResultEvent {
	return &AgentResultEvent{base: newBase(KindAgentResult, agent), StopReason: stopReason}
}
