package multiagent

import (
	"context"
	"fmt"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/tools"
)

// depthStateKey is the tools.Context.InvocationState key an AgentTool reads
// and increments to bound agent-as-tool recursion (spec §9 "Dynamic
// agent-as-tool wrapping").
const depthStateKey = "__agent_tool_depth__"

// AgentTool adapts a Node (a leaf agent.Agent, or a nested swarm/graph) into
// a tools.Tool, so a model can invoke a whole sub-agent the same way it
// invokes any other tool (spec §9 design note, §4.5' "AgentTool adapter").
// Grounded on the pattern of uzukizheng-trpc-agent-go's tool/transfer
// package (a synthetic tool that reaches into orchestration state), adapted
// here to a synchronous nested-invocation shape rather than an in-band
// transfer signal.
type AgentTool struct {
	name        string
	description string
	node        Node
	maxDepth    int
}

// NewAgentTool constructs an AgentTool wrapping node. maxDepth bounds how
// many nested AgentTool invocations may stack (a depth of 0 at the root
// invocation, incremented by one per nesting level); a call that would
// exceed it is rejected with an error tool-result instead of recursing.
func NewAgentTool(name, description string, node Node, maxDepth int) *AgentTool {
	if maxDepth <= 0 {
		maxDepth = 1
	}
	return &AgentTool{name: name, description: description, node: node, maxDepth: maxDepth}
}

func (t *AgentTool) Name() string        { return t.name }
func (t *AgentTool) Description() string { return t.description }

func (t *AgentTool) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name:        t.name,
		Description: t.description,
		InputSchema: core.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{
					"type":        "string",
					"description": "The message to send to the sub-agent.",
				},
			},
			"required": []any{"message"},
		},
	}
}

// Stream implements tools.Tool by running the wrapped node to completion
// and coercing its MultiAgentResult into a single ToolResultBlock. Progress
// events from the nested execution are forwarded as StreamItem progress
// payloads so an observer can still see inside the nested run.
func (t *AgentTool) Stream(ctx context.Context, tc tools.Context) <-chan tools.StreamItem {
	out := make(chan tools.StreamItem, 1)
	go func() {
		defer close(out)

		depth, _ := tc.InvocationState[depthStateKey].(int)
		if depth >= t.maxDepth {
			out <- tools.StreamItem{Result: errorResult(tc.ToolUse.ToolUseID,
				fmt.Sprintf("agent tool recursion depth %d reached max depth %d", depth, t.maxDepth))}
			return
		}

		message, _ := asInputMap(tc.ToolUse.Input)["message"].(string)

		childState := make(map[string]any, len(tc.InvocationState)+1)
		for k, v := range tc.InvocationState {
			childState[k] = v
		}
		childState[depthStateKey] = depth + 1

		var result *Result
		for evt := range t.node.InvokeNode(ctx, []core.ContentBlock{core.TextBlock{Text: message}}, childState) {
			if evt.Kind == EventResult {
				result = evt.Result
				continue
			}
			select {
			case out <- tools.StreamItem{Progress: evt}:
			case <-ctx.Done():
				return
			}
		}

		if result == nil {
			out <- tools.StreamItem{Result: errorResult(tc.ToolUse.ToolUseID, "nested agent produced no result")}
			return
		}
		out <- tools.StreamItem{Result: toolResultFromMultiAgentResult(tc.ToolUse.ToolUseID, result)}
	}()
	return out
}

func asInputMap(input any) map[string]any {
	if m, ok := input.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func errorResult(toolUseID, message string) *core.ToolResultBlock {
	return &core.ToolResultBlock{
		ToolUseID: toolUseID,
		Status:    core.ToolResultError,
		Content:   []core.ToolResultContent{{Text: "Error: " + message}},
		Error:     &core.ToolResultError_{Message: message},
	}
}

func toolResultFromMultiAgentResult(toolUseID string, result *Result) *core.ToolResultBlock {
	if result.Status != StatusCompleted {
		return errorResult(toolUseID, fmt.Sprintf("nested agent execution ended with status %s", result.Status))
	}
	var text string
	for _, id := range result.ExecutionOrder {
		nr := result.NodeResults[id]
		for _, b := range nr.Content {
			if tb, ok := b.(core.TextBlock); ok {
				text += tb.Text
			}
		}
	}
	return &core.ToolResultBlock{
		ToolUseID: toolUseID,
		Status:    core.ToolResultSuccess,
		Content:   []core.ToolResultContent{{Text: text}},
	}
}

var _ tools.Tool = (*AgentTool)(nil)
