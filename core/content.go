package core

// ToolResultStatus reports whether a tool invocation succeeded.
type ToolResultStatus string

const (
	// ToolResultSuccess marks a ToolResultBlock produced by a tool that
	// completed without error.
	ToolResultSuccess ToolResultStatus = "success"
	// ToolResultError marks a ToolResultBlock produced by a tool that failed,
	// was canceled, or was synthesized by the loop itself (unknown tool,
	// canceled tool, interrupt denial).
	ToolResultError ToolResultStatus = "error"
)

// ContentBlock is a marker interface implemented by every content block
// variant (§3 of the spec: text, toolUse, toolResult, reasoning, cachePoint,
// and the media kinds). The engine dispatches on the concrete type with a
// type switch rather than a discriminator field, matching the teacher's
// Part marker-interface convention (runtime/agent/model.Part).
type ContentBlock interface {
	isContentBlock()
}

// TextBlock is a plain text content block.
type TextBlock struct {
	Text string
}

func (TextBlock) isContentBlock() {}

// ToolUseBlock declares a tool invocation requested by the assistant. Every
// ToolUseID observed in an assistant message must be matched by exactly one
// ToolResultBlock carrying the same ID before the next model call that
// follows a tool-use stop (spec §3 invariant).
type ToolUseBlock struct {
	// Name is the tool identifier requested by the model.
	Name string
	// ToolUseID uniquely identifies this tool call within the invocation.
	ToolUseID string
	// Input is the JSON-decoded arguments object supplied by the model.
	Input any
}

func (ToolUseBlock) isContentBlock() {}

// ToolResultContent is a single item inside a ToolResultBlock's Content
// slice: either text or a JSON-compatible value.
type ToolResultContent struct {
	// Text holds textual content. Set when Value is nil.
	Text string
	// Value holds a JSON-compatible value (object or array). Set when Text
	// is empty and the tool produced structured output.
	Value any
	// IsJSON reports whether Value (rather than Text) carries the payload,
	// distinguishing a JSON string "" from an unset Text field.
	IsJSON bool
}

// ToolResultBlock carries the outcome of one tool invocation, correlated to
// its ToolUseBlock by ToolUseID.
type ToolResultBlock struct {
	// ToolUseID correlates this result to a prior ToolUseBlock.
	ToolUseID string
	// Status reports success or error.
	Status ToolResultStatus
	// Content is the ordered result payload.
	Content []ToolResultContent
	// Error carries a normalized error description when Status is
	// ToolResultError. Nil for successful results.
	Error *ToolResultError_
}

func (ToolResultBlock) isContentBlock() {}

// ToolResultError_ normalizes an arbitrary thrown/returned tool error into a
// stable shape for transport and hook consumption. Named with a trailing
// underscore to avoid colliding with the ToolResultError status constant
// above.
type ToolResultError_ struct {
	// Message is the human-readable error summary.
	Message string
	// Kind optionally classifies the failure (e.g. "validation",
	// "tool_unavailable"). Empty when the tool did not classify it.
	Kind string
}

// ReasoningBlock carries provider-issued reasoning/thinking content. Text and
// Signature accumulate across ReasoningContentDelta events; Redacted is
// passed through unchanged when the provider redacts the plaintext.
type ReasoningBlock struct {
	Text      string
	Signature string
	Redacted  []byte
}

func (ReasoningBlock) isContentBlock() {}

// CachePointKind identifies what a CachePointBlock marks a boundary for.
type CachePointKind string

// CachePointBlock is an opaque cache-boundary marker. It is carried through
// the message unchanged but never yielded as model output (spec §4.4 tie-break).
type CachePointBlock struct {
	Kind CachePointKind
}

func (CachePointBlock) isContentBlock() {}

// MediaSourceKind distinguishes inline-bytes media from URL-referenced media.
type MediaSourceKind string

const (
	// MediaSourceInline indicates Bytes carries the raw media payload.
	MediaSourceInline MediaSourceKind = "inline"
	// MediaSourceURL indicates URL locates the media externally.
	MediaSourceURL MediaSourceKind = "url"
)

// MediaSource is the payload location shared by the media block kinds.
type MediaSource struct {
	Kind  MediaSourceKind
	Bytes []byte
	URL   string
}

// ImageBlock carries an image attachment. Media blocks appear only in user
// messages; the loop forwards them unchanged (spec §4.4 tie-break).
type ImageBlock struct {
	Format string
	Source MediaSource
}

func (ImageBlock) isContentBlock() {}

// VideoBlock carries a video attachment.
type VideoBlock struct {
	Format string
	Source MediaSource
}

func (VideoBlock) isContentBlock() {}

// DocumentBlock carries a document attachment.
type DocumentBlock struct {
	Name   string
	Format string
	Source MediaSource
}

func (DocumentBlock) isContentBlock() {}
