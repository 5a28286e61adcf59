// Package core defines the provider-agnostic value model shared by every
// layer of the orchestration runtime: messages, content blocks, tool specs,
// and the canonical JSON value representation used at the model/tool
// boundary. Every other package (hooks, tools, model, agent, multiagent)
// imports core rather than redefining these shapes.
package core

// Role identifies the speaker for a Message.
type Role string

const (
	// RoleUser marks a message authored by the human side of the
	// conversation, including synthesized tool-result messages the loop
	// appends on the user's behalf.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the model.
	RoleAssistant Role = "assistant"
)

// Message is an ordered sequence of content blocks attributed to a single
// Role. Once appended to an Agent's history, a Message is immutable: callers
// that need to mutate history append a new Message rather than editing one
// in place.
type Message struct {
	// Role identifies the speaker for this message.
	Role Role
	// Blocks are the ordered content blocks carried by this message.
	Blocks []ContentBlock
	// Meta carries optional application-specific metadata attached to the
	// message. The engine never interprets it.
	Meta map[string]any
}

// Text concatenates every TextBlock in the message, in order, ignoring other
// block kinds. It is a convenience used by tests and simple consumers; it is
// not used by the event loop itself, which treats blocks structurally.
func (m Message) Text() string {
	var out string
	for _, b := range m.Blocks {
		if t, ok := b.(TextBlock); ok {
			out += t.Text
		}
	}
	return out
}

// ToolUses returns every ToolUseBlock in the message, in document order.
func (m Message) ToolUses() []ToolUseBlock {
	var out []ToolUseBlock
	for _, b := range m.Blocks {
		if tu, ok := b.(ToolUseBlock); ok {
			out = append(out, tu)
		}
	}
	return out
}
