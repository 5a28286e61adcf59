package core

import "regexp"

// toolNamePattern enforces the spec §3 ToolSpec.Name constraint: 1-64
// characters matching ^[A-Za-z0-9_-]+$.
var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidToolName reports whether name satisfies the ToolSpec naming
// invariant. Shared by tools.Registry (insert-time validation) and the
// schema-validated Tool factory.
func ValidToolName(name string) bool {
	if len(name) < 1 || len(name) > 64 {
		return false
	}
	return toolNamePattern.MatchString(name)
}

// JSONSchema is the canonical representation of a JSON-Schema document used
// for tool input validation. It is a decoded JSON object (map[string]any)
// rather than a typed schema struct so that provider adapters and the
// santhosh-tekuri/jsonschema compiler can consume it directly without an
// intermediate conversion.
type JSONSchema = map[string]any

// ToolSpec enumerates the metadata published to a model for a single tool.
type ToolSpec struct {
	// Name is the tool identifier; must satisfy ValidToolName.
	Name string
	// Description is human-readable guidance for the model. When present it
	// must be non-empty.
	Description string
	// InputSchema is the JSON-Schema describing the tool's input payload.
	InputSchema JSONSchema
	// Tags carries optional metadata labels used by policy or UI layers.
	// Inert to the core engine (SPEC_FULL §3' addition, ported from the
	// teacher's tools.ToolSpec.Tags).
	Tags []string
}
