package agent

import (
	"context"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/tools"
)

// StructuredOutputContext attaches a schema-validated structured-output
// requirement to a single invocation (spec §4.4 "Structured Output"). It is
// a per-invocation option, not per-agent configuration, since the same
// Agent may be invoked once for free-form text and once for a typed result.
type StructuredOutputContext struct {
	// Schema is the JSON schema the structured value must satisfy.
	Schema core.JSONSchema
	// ExpectedToolName is the name of the synthetic tool the loop registers
	// to carry the structured value (spec: "synthesizes a private tool
	// named from the schema's root, e.g. SampleModel").
	ExpectedToolName string
	// Prompt is appended as a user message when the model's first message
	// contains no tool use, to force a second attempt. Defaults to "You
	// must format the previous response as structured output."
	Prompt string

	forceAttempted bool
	value          any
	toolUseID      string
}

const defaultStructuredOutputPrompt = "You must format the previous response as structured output."

func (s *StructuredOutputContext) prompt() string {
	if s.Prompt == "" {
		return defaultStructuredOutputPrompt
	}
	return s.Prompt
}

// tool builds the synthetic structured-output tool: the wrapping schema tool
// validates the input (a violation yields an error tool-result) and the
// callback returns the validated input unchanged. The loop's tool phase
// stores a successful call's input as the structured value and stops.
func (s *StructuredOutputContext) tool() (tools.Tool, error) {
	return tools.NewSchemaTool(tools.SchemaToolConfig{
		Name:        s.ExpectedToolName,
		Description: "Emit the final structured response.",
		InputSchema: s.Schema,
		Callback: func(ctx context.Context, tc tools.Context) (any, error) {
			return tc.ToolUse.Input, nil
		},
	})
}
