// Package model defines the provider-agnostic streaming contract of spec
// §4.3: the Provider interface every concrete model adapter implements, the
// ModelStreamEvent discriminator set providers emit, and a StreamAggregator
// that reassembles complete messages from deltas. Grounded on the teacher's
// runtime/agent/model.Client/Streamer split (runtime/agent/model/model.go),
// adapted to the spec's explicit event-discriminator wire shape instead of
// the teacher's Chunk-with-Type-string shape.
package model

import (
	"context"

	"github.com/fluxorch/agentcore/core"
)

// Request captures the inputs to a single streaming model invocation.
type Request struct {
	// Messages is the ordered transcript provided to the model.
	Messages []core.Message
	// Tools lists the tool specs available to the model this call.
	Tools []core.ToolSpec
	// ToolChoice optionally constrains how the model uses tools (used by
	// structured-output forced mode, spec §4.4 "Structured Output").
	ToolChoice *ToolChoice
	// SystemPrompt is the system/instructions text for the call, if any.
	SystemPrompt string
	// MaxTokens caps the number of output tokens when supported.
	MaxTokens int
	// Temperature controls sampling when supported by the provider.
	Temperature float32
}

// ToolChoiceMode controls how a Request constrains tool use.
type ToolChoiceMode string

const (
	// ToolChoiceAny requests the model use any available tool.
	ToolChoiceAny ToolChoiceMode = "any"
	// ToolChoiceNamed requests the model use a specific named tool.
	ToolChoiceNamed ToolChoiceMode = "tool"
	// ToolChoiceAuto lets the provider choose its default behavior.
	ToolChoiceAuto ToolChoiceMode = "auto"
)

// ToolChoice configures the ToolChoiceMode for a Request.
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string // set when Mode == ToolChoiceNamed
}

// Provider is the streaming contract every concrete model adapter
// implements (spec §2 item 4, §4.3). Only this interface is in scope for
// the core; this module ships no concrete adapter, and its tests implement
// it with scripted in-memory providers.
type Provider interface {
	// Stream performs a streaming model invocation and returns a lazy
	// sequence of StreamEvent values terminating in a
	// ModelMessageStopEvent.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// StreamEventKind discriminates the ModelStreamEvent variant set (spec §4.3).
type StreamEventKind string

const (
	EventMessageStart      StreamEventKind = "message_start"
	EventContentBlockStart StreamEventKind = "content_block_start"
	EventContentBlockDelta StreamEventKind = "content_block_delta"
	EventContentBlockStop  StreamEventKind = "content_block_stop"
	EventMessageStop       StreamEventKind = "message_stop"
	EventMetadata          StreamEventKind = "metadata"
)

// ToolUseStart carries the tool identity when a content-block-start event
// opens a tool-use block.
type ToolUseStart struct {
	Name      string
	ToolUseID string
}

// BlockStart carries the optional start payload for a content-block-start
// event.
type BlockStart struct {
	ToolUseStart *ToolUseStart
}

// TextDelta is a content-block-delta payload for a text block.
type TextDelta struct {
	Text string
}

// ToolUseInputDelta is a content-block-delta payload fragment of a tool
// use's JSON input, concatenated across deltas and parsed once the block
// stops (spec §4.3).
type ToolUseInputDelta struct {
	Input string
}

// ReasoningContentDelta is a content-block-delta payload for a reasoning
// block.
type ReasoningContentDelta struct {
	Text             string
	Signature        string
	RedactedContent  []byte
}

// Usage reports token consumption for a model call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Metrics carries provider-reported call metrics beyond usage (e.g.
// provider-assigned model id, estimated cost).
type Metrics struct {
	ModelID        string
	EstimatedCost  float64
}

// StreamEvent is a single element of the lazy sequence a Provider emits.
// Exactly the field matching Kind is populated.
type StreamEvent struct {
	Kind StreamEventKind

	// EventMessageStart
	Role core.Role

	// EventContentBlockStart / EventContentBlockDelta / EventContentBlockStop
	ContentBlockIndex int
	Start             *BlockStart
	Text              *TextDelta
	ToolInput         *ToolUseInputDelta
	Reasoning         *ReasoningContentDelta

	// EventMessageStop
	StopReason string

	// EventMetadata
	Usage   *Usage
	Metrics *Metrics
}
