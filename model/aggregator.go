package model

import (
	"encoding/json"
	"strings"

	"github.com/fluxorch/agentcore/agenterr"
	"github.com/fluxorch/agentcore/core"
)

// AggregatedItem is a single element of the parallel sequence a
// StreamAggregator produces: either a transient delta (forwarded to the
// ModelStreamObserver hook) or a completed ContentBlock (forwarded to the
// ContentBlockComplete hook and accumulated into the final message).
type AggregatedItem struct {
	// Delta carries the raw StreamEvent for transient observer forwarding.
	// Set for every item, including ones that also carry a completed Block.
	Delta StreamEvent
	// Block is set when this item corresponds to a ...StopEvent that closed
	// a fully-assembled content block.
	Block core.ContentBlock
	// BlockIndex is the ContentBlockIndex the completed Block belongs to.
	BlockIndex int
	// Err is set if reassembling this block failed (e.g. tool-use input
	// JSON parse failure); the loop converts it into an error tool-result
	// rather than aborting the call (spec §4.3, §7).
	Err error
}

// blockBuilder accumulates deltas for one content-block index until its
// stop event arrives.
type blockBuilder struct {
	kind string // "text" | "tool_use" | "reasoning"

	text       strings.Builder
	toolName   string
	toolUseID  string
	toolInput  strings.Builder
	reasoning  ReasoningContentDelta
}

// StreamAggregator consumes a Provider's raw StreamEvent sequence and
// produces the parallel AggregatedItem sequence of spec §4.3. Only complete
// blocks accumulate into the final core.Message; transient deltas are
// surfaced for observer hooks only.
type StreamAggregator struct {
	builders map[int]*blockBuilder
	message  core.Message
	stopReason string
}

// NewStreamAggregator constructs an aggregator for a single model call.
func NewStreamAggregator() *StreamAggregator {
	return &StreamAggregator{builders: make(map[int]*blockBuilder)}
}

// Message returns the assistant message assembled so far from completed
// blocks. Call after the sequence reaches EventMessageStop.
func (a *StreamAggregator) Message() core.Message {
	return core.Message{Role: core.RoleAssistant, Blocks: a.message.Blocks}
}

// StopReason returns the stop reason carried by the EventMessageStop event,
// once observed.
func (a *StreamAggregator) StopReason() string { return a.stopReason }

// Feed processes a single raw StreamEvent and returns the AggregatedItem
// derived from it. Every event produces exactly one AggregatedItem (the
// transient-delta view); ...StopEvent events additionally populate Block.
func (a *StreamAggregator) Feed(evt StreamEvent) AggregatedItem {
	item := AggregatedItem{Delta: evt, BlockIndex: evt.ContentBlockIndex}

	switch evt.Kind {
	case EventMessageStart:
		// No per-block state; role is implicit (assistant) for the loop's
		// purposes (spec §4.4 only ever assembles assistant messages here).
	case EventContentBlockStart:
		b := &blockBuilder{}
		if evt.Start != nil && evt.Start.ToolUseStart != nil {
			b.kind = "tool_use"
			b.toolName = evt.Start.ToolUseStart.Name
			b.toolUseID = evt.Start.ToolUseStart.ToolUseID
		}
		a.builders[evt.ContentBlockIndex] = b
	case EventContentBlockDelta:
		b := a.builders[evt.ContentBlockIndex]
		if b == nil {
			b = &blockBuilder{}
			a.builders[evt.ContentBlockIndex] = b
		}
		switch {
		case evt.Text != nil:
			b.kind = "text"
			b.text.WriteString(evt.Text.Text)
		case evt.ToolInput != nil:
			b.kind = "tool_use"
			b.toolInput.WriteString(evt.ToolInput.Input)
		case evt.Reasoning != nil:
			b.kind = "reasoning"
			b.reasoning.Text += evt.Reasoning.Text
			if evt.Reasoning.Signature != "" {
				b.reasoning.Signature = evt.Reasoning.Signature
			}
			if len(evt.Reasoning.RedactedContent) > 0 {
				b.reasoning.RedactedContent = evt.Reasoning.RedactedContent
			}
		}
	case EventContentBlockStop:
		b := a.builders[evt.ContentBlockIndex]
		if b == nil {
			break
		}
		block, err := b.finish()
		item.Err = err
		if block != nil {
			item.Block = block
			a.message.Blocks = append(a.message.Blocks, block)
		}
		delete(a.builders, evt.ContentBlockIndex)
	case EventMessageStop:
		a.stopReason = evt.StopReason
	case EventMetadata:
		// Usage/Metrics are surfaced via Delta only; the loop reads Usage
		// off the raw event to accumulate the invocation's Result.Usage.
		// Metrics is not read by the loop.
	}
	return item
}

// finish assembles the accumulated deltas for one block into a
// core.ContentBlock. Tool-use blocks parse their concatenated input string
// as JSON here; a parse failure surfaces as a JsonValidationError the loop
// converts into an error tool-result (spec §4.3).
func (b *blockBuilder) finish() (core.ContentBlock, error) {
	switch b.kind {
	case "text":
		return core.TextBlock{Text: b.text.String()}, nil
	case "reasoning":
		return core.ReasoningBlock{
			Text:      b.reasoning.Text,
			Signature: b.reasoning.Signature,
			Redacted:  b.reasoning.RedactedContent,
		}, nil
	case "tool_use":
		raw := b.toolInput.String()
		var input any
		if strings.TrimSpace(raw) == "" {
			input = map[string]any{}
		} else if err := json.Unmarshal([]byte(raw), &input); err != nil {
			// Malformed tool-use JSON still yields a ToolUseBlock (with
			// empty input) rather than dropping the block entirely, so the
			// tool phase can synthesize an error tool-result and the
			// conversation continues (spec §7 "JSON parse of tool input").
			return core.ToolUseBlock{Name: b.toolName, ToolUseID: b.toolUseID, Input: map[string]any{}},
				agenterr.NewWithCause(agenterr.KindJSONValidation,
					"model: tool use input is not valid JSON", err)
		}
		return core.ToolUseBlock{Name: b.toolName, ToolUseID: b.toolUseID, Input: input}, nil
	default:
		return core.TextBlock{}, nil
	}
}
