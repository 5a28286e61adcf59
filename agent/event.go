package agent

import (
	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/tools"
)

// EventKind discriminates the consumer-facing stream Invoke produces (spec
// §6.2: "the stream produced by any executor is a sequence of JSON objects,
// each with a type discriminator"). It is distinct from hooks.EventKind:
// hook events are an internal extension point every subscriber sees; stream
// events are the curated subset a consumer (SSE client, multiagent executor)
// actually wants to render.
type EventKind string

const (
	EventModelDelta   EventKind = "model_delta"
	EventBlockComplete EventKind = "block_complete"
	EventToolProgress EventKind = "tool_progress"
	EventToolResult   EventKind = "tool_result"
	EventDone         EventKind = "done"
	EventError        EventKind = "error"
)

// Event is a single element of the stream Invoke returns. Exactly the field
// matching Kind is populated, the same discriminated-struct pattern used by
// model.StreamEvent and tools.StreamItem.
type Event struct {
	Kind EventKind

	// EventModelDelta
	ModelDelta *model.StreamEvent

	// EventBlockComplete
	Block      core.ContentBlock
	BlockIndex int

	// EventToolProgress
	ToolUseID string
	Progress  any

	// EventToolResult
	ToolResult *core.ToolResultBlock

	// EventDone / EventError
	Result *Result
}

// toolItemEvent adapts a tools.StreamItem into the stream-event shape,
// shared by the regular tool-call path and any future tool-streaming
// observer that needs the same framing.
func toolItemEvent(toolUseID string, item tools.StreamItem) Event {
	if item.Result != nil {
		return Event{Kind: EventToolResult, ToolUseID: toolUseID, ToolResult: item.Result}
	}
	return Event{Kind: EventToolProgress, ToolUseID: toolUseID, Progress: item.Progress}
}
