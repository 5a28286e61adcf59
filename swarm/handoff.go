package swarm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/tools"
)

const handoffToolName = "handoff_to_agent"

// HandoffRecord is one entry of SharedContext.HandoffHistory (spec §3
// "handoffHistory: [fromId -> toId, message]").
type HandoffRecord struct {
	FromID  string
	ToID    string
	Message string
}

// SharedContext is the swarm-wide mutable state of spec §3: a
// single-writer-per-node contribution map plus the current node and
// handoff history, readable by all nodes.
type SharedContext struct {
	mu             sync.Mutex
	contributions  map[string]any
	currentNode    string
	handoffHistory []HandoffRecord
}

// NewSharedContext constructs a SharedContext seeded with the swarm's entry
// point as the initial current node.
func NewSharedContext(entryPoint string) *SharedContext {
	return &SharedContext{contributions: make(map[string]any), currentNode: entryPoint}
}

// SetContribution records nodeID's contribution value (spec §5 "single
// writer per node discipline: the currently executing node is the only
// writer").
func (s *SharedContext) SetContribution(nodeID string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contributions[nodeID] = value
}

// Contribution returns nodeID's last recorded contribution, if any.
func (s *SharedContext) Contribution(nodeID string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.contributions[nodeID]
	return v, ok
}

// CurrentNode returns the node currently holding control.
func (s *SharedContext) CurrentNode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentNode
}

func (s *SharedContext) setCurrentNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentNode = id
}

// HandoffHistory returns a snapshot of every handoff recorded so far, in
// order. The handoff message also becomes the target agent's next prompt
// (see Swarm.run); this history is the full
// structured record, reachable by tools through the invocation state.
func (s *SharedContext) HandoffHistory() []HandoffRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HandoffRecord, len(s.handoffHistory))
	copy(out, s.handoffHistory)
	return out
}

func (s *SharedContext) recordHandoff(from, to, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handoffHistory = append(s.handoffHistory, HandoffRecord{FromID: from, ToID: to, Message: message})
}

// sharedContextStateKey is the tools.Context.InvocationState key a swarm
// threads its *SharedContext under, so a tool (or a nested AgentTool) can
// read handoff history during the invocation it is running inside of.
const sharedContextStateKey = "__swarm_shared_context__"

// handoffSignal captures the outcome of a single node run's handoff
// attempts. Only the first handoff_to_agent call within a node run is
// honored (spec §4.5.1 tie-break); a fresh handoffSignal is allocated per
// node run so the "already in flight" rule resets on the next run.
type handoffSignal struct {
	mu        sync.Mutex
	attempted bool
	target    string
	message   string
}

// newHandoffTool builds the synthetic handoff_to_agent tool injected into
// whichever agent is running as currentNode (spec §4.5.1). validNames is
// surfaced only in the tool's description, matching
// uzukizheng-trpc-agent-go/tool/transfer's pattern of listing available
// targets in the Declaration description rather than validating them at
// the schema level.
func newHandoffTool(sig *handoffSignal, validNames []string) (tools.Tool, error) {
	schema := core.JSONSchema{
		"type": "object",
		"properties": map[string]any{
			"agent_name": map[string]any{
				"type":        "string",
				"description": "Name of the agent to hand off to. Valid agent names: " + strings.Join(validNames, ", "),
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Message to pass to the target agent",
			},
		},
		"required": []any{"agent_name"},
	}
	return tools.NewSchemaTool(tools.SchemaToolConfig{
		Name:        handoffToolName,
		Description: "Hand off the conversation to another agent in this swarm.",
		InputSchema: schema,
		Callback: func(ctx context.Context, tc tools.Context) (any, error) {
			sig.mu.Lock()
			defer sig.mu.Unlock()
			if sig.attempted {
				return nil, errors.New("handoff already in flight")
			}
			input, _ := tc.ToolUse.Input.(map[string]any)
			name, _ := input["agent_name"].(string)
			message, _ := input["message"].(string)
			sig.attempted = true
			sig.target = name
			sig.message = message
			return fmt.Sprintf("handing off to %s", name), nil
		},
	})
}
