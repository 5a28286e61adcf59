package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fluxorch/agentcore/core"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaToolConfig configures the schema-validated Tool factory (spec §4.2
// "Schema-driven Tool factory").
type SchemaToolConfig struct {
	// Name is the published tool identifier.
	Name string
	// Description is the published tool description.
	Description string
	// InputSchema is the JSON-Schema the tool input must satisfy. A "$schema"
	// meta field, if present, is stripped before publishing to the model
	// (spec §4.2) but is still honored by the compiler below.
	InputSchema core.JSONSchema
	// Callback receives the already-validated, JSON-decoded input and
	// returns a raw Go value for the same coercion rules as FunctionTool.
	Callback Func
}

// SchemaTool is a Tool whose input is validated against a compiled
// JSON-Schema before every invocation (spec §4.2). Validation failures are
// reported as error tool-results carrying the violating field path rather
// than as Go errors, so the loop can continue the conversation.
type SchemaTool struct {
	cfg      SchemaToolConfig
	compiled *jsonschema.Schema
	// published is InputSchema with "$schema" removed.
	published core.JSONSchema
}

// NewSchemaTool compiles cfg.InputSchema once and returns a Tool that
// validates every invocation's input against it. Returns an error if the
// schema fails to compile.
func NewSchemaTool(cfg SchemaToolConfig) (*SchemaTool, error) {
	published := make(core.JSONSchema, len(cfg.InputSchema))
	for k, v := range cfg.InputSchema {
		if k == "$schema" {
			continue
		}
		published[k] = v
	}

	c := jsonschema.NewCompiler()
	resourceName := cfg.Name + ".schema.json"
	if err := c.AddResource(resourceName, cfg.InputSchema); err != nil {
		return nil, fmt.Errorf("tools: add schema resource for %q: %w", cfg.Name, err)
	}
	compiled, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("tools: compile schema for %q: %w", cfg.Name, err)
	}
	return &SchemaTool{cfg: cfg, compiled: compiled, published: published}, nil
}

// Name returns the tool's identifier.
func (t *SchemaTool) Name() string { return t.cfg.Name }

// Description returns the tool's description.
func (t *SchemaTool) Description() string { return t.cfg.Description }

// Spec returns the published ToolSpec, with the schema's "$schema" meta
// field stripped per spec §4.2.
func (t *SchemaTool) Spec() core.ToolSpec {
	return core.ToolSpec{Name: t.cfg.Name, Description: t.cfg.Description, InputSchema: t.published}
}

// Stream validates tc.ToolUse.Input against the compiled schema, then
// invokes the callback. On validation failure, it synthesizes an error
// ToolResultBlock naming the violating field path instead of invoking the
// callback.
func (t *SchemaTool) Stream(ctx context.Context, tc Context) <-chan StreamItem {
	out := make(chan StreamItem, 1)
	go func() {
		defer close(out)

		// jsonschema validates against decoded JSON values (map[string]any,
		// []any, string, float64, bool, nil); round-trip the input through
		// JSON to normalize Go-typed maps/structs into that shape.
		raw, err := json.Marshal(tc.ToolUse.Input)
		if err != nil {
			result := validationError(tc.ToolUse.ToolUseID, "", "input is not JSON-serializable: "+err.Error())
			out <- StreamItem{Result: &result}
			return
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			result := validationError(tc.ToolUse.ToolUseID, "", "input is not valid JSON: "+err.Error())
			out <- StreamItem{Result: &result}
			return
		}
		if err := t.compiled.Validate(decoded); err != nil {
			path, msg := violatingField(err)
			result := validationError(tc.ToolUse.ToolUseID, path, msg)
			out <- StreamItem{Result: &result}
			return
		}

		value, err := t.cfg.Callback(ctx, tc)
		result := coerceResult(tc.ToolUse.ToolUseID, value, err)
		out <- StreamItem{Result: &result}
	}()
	return out
}

// violatingField extracts a best-effort field path and message from a
// jsonschema validation error for inclusion in the synthesized error
// tool-result, per spec §4.2 ("fail -> error tool result containing the
// violating field path").
func violatingField(err error) (path, message string) {
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		path = ve.InstanceLocation
		message = ve.Error()
		return path, message
	}
	return "", err.Error()
}

func validationError(toolUseID, path, message string) core.ToolResultBlock {
	text := "Error: validation failed"
	if path != "" {
		text = fmt.Sprintf("Error: validation failed at %q: %s", path, message)
	} else if message != "" {
		text = "Error: " + message
	}
	return core.ToolResultBlock{
		ToolUseID: toolUseID,
		Status:    core.ToolResultError,
		Content:   []core.ToolResultContent{{Text: text}},
		Error:     &core.ToolResultError_{Message: text, Kind: "validation"},
	}
}
