package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fluxorch/agentcore/core"
)

// Func is the callback signature a FunctionTool wraps: a typed or untyped
// handler that accepts the decoded tool-use input and returns a raw Go
// value (or error) for FunctionTool to coerce into a ToolResultBlock.
type Func func(ctx context.Context, tc Context) (any, error)

// undefinedType is the type of Undefined, the sentinel a Func may return to
// request the spec's "undefined/absent" text content ("<undefined>")
// distinctly from Go's native nil, which maps to "<null>".
type undefinedType struct{}

// Undefined is a sentinel return value distinguishing the spec's
// "undefined/absent" case from Go's native nil ("<null>"). Go has no
// language-level undefined value, so callbacks opt in explicitly by
// returning Undefined when that distinction matters to the caller.
var Undefined = undefinedType{}

// FunctionTool adapts a plain Go function into the Tool contract, applying
// the value-coercion rules of spec §4.2:
//
//   - nil               -> text content "<null>", success
//   - Undefined         -> text content "<undefined>", success (Go has no
//     separate "undefined", so a callback returns the Undefined sentinel)
//   - primitive (string/number/bool) -> text content fmt.Sprint(v), success
//   - slice/array -> JSON content wrapped as {"$value": array} (Bedrock-compat), deep-copied
//   - map/struct  -> JSON content, deep-copied
//   - returned error -> error status, text content "Error: <message>"
type FunctionTool struct {
	name        string
	description string
	schema      core.JSONSchema
	fn          Func
}

// NewFunctionTool constructs a FunctionTool. schema may be nil when the
// tool accepts no structured input validation (the name is still
// validated against core.ValidToolName by the ToolRegistry on insert, not
// here, so a FunctionTool can be constructed standalone for tests).
func NewFunctionTool(name, description string, schema core.JSONSchema, fn Func) *FunctionTool {
	return &FunctionTool{name: name, description: description, schema: schema, fn: fn}
}

// Name returns the tool's identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the tool's description.
func (t *FunctionTool) Description() string { return t.description }

// Spec returns the published ToolSpec.
func (t *FunctionTool) Spec() core.ToolSpec {
	return core.ToolSpec{Name: t.name, Description: t.description, InputSchema: t.schema}
}

// Stream executes fn synchronously and coerces its return value per the
// rules documented on FunctionTool, emitting exactly one terminal
// StreamItem.
func (t *FunctionTool) Stream(ctx context.Context, tc Context) <-chan StreamItem {
	out := make(chan StreamItem, 1)
	go func() {
		defer close(out)
		value, err := t.fn(ctx, tc)
		result := coerceResult(tc.ToolUse.ToolUseID, value, err)
		out <- StreamItem{Result: &result}
	}()
	return out
}

// coerceResult implements the spec §4.2 status-mapping table for a raw Go
// return value from a wrapped callback.
func coerceResult(toolUseID string, value any, err error) core.ToolResultBlock {
	if err != nil {
		return core.ToolResultBlock{
			ToolUseID: toolUseID,
			Status:    core.ToolResultError,
			Content:   []core.ToolResultContent{{Text: "Error: " + err.Error()}},
			Error:     &core.ToolResultError_{Message: err.Error()},
		}
	}
	if value == nil {
		return textResult(toolUseID, "<null>")
	}
	if _, isUndefined := value.(undefinedType); isUndefined {
		return textResult(toolUseID, "<undefined>")
	}
	switch v := value.(type) {
	case string:
		return textResult(toolUseID, v)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return textResult(toolUseID, fmt.Sprint(v))
	}
	// array/object: deep-copy via JSON round-trip, then branch on shape.
	raw, marshalErr := json.Marshal(value)
	if marshalErr != nil {
		return core.ToolResultBlock{
			ToolUseID: toolUseID,
			Status:    core.ToolResultError,
			Content:   []core.ToolResultContent{{Text: "Error: " + marshalErr.Error()}},
			Error:     &core.ToolResultError_{Message: marshalErr.Error()},
		}
	}
	var generic any
	_ = json.Unmarshal(raw, &generic)
	if _, isArray := generic.([]any); isArray {
		generic = map[string]any{"$value": generic}
	}
	return core.ToolResultBlock{
		ToolUseID: toolUseID,
		Status:    core.ToolResultSuccess,
		Content:   []core.ToolResultContent{{Value: generic, IsJSON: true}},
	}
}

func textResult(toolUseID, text string) core.ToolResultBlock {
	return core.ToolResultBlock{
		ToolUseID: toolUseID,
		Status:    core.ToolResultSuccess,
		Content:   []core.ToolResultContent{{Text: text}},
	}
}
