package multiagent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxorch/agentcore/agent"
	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/multiagent"
	"github.com/fluxorch/agentcore/tools"
)

func TestAgentToolInvokesNestedAgent(t *testing.T) {
	provider := &scriptedProvider{responses: [][]model.StreamEvent{textResponse("nested answer", "endTurn")}}
	sub := agent.NewAgent(agent.Config{Name: "helper", Model: provider})
	node := multiagent.WrapAgent("helper", sub)
	at := multiagent.NewAgentTool("ask_helper", "delegates to the helper agent", node, 2)

	items := at.Stream(context.Background(), tools.Context{
		ToolUse: core.ToolUseBlock{ToolUseID: "tu_1", Name: "ask_helper", Input: map[string]any{"message": "hi"}},
	})

	var result *core.ToolResultBlock
	for item := range items {
		if item.Result != nil {
			result = item.Result
		}
	}
	require.NotNil(t, result)
	require.Equal(t, core.ToolResultSuccess, result.Status)
	require.Equal(t, "nested answer", result.Content[0].Text)
}

func TestAgentToolRejectsBeyondMaxDepth(t *testing.T) {
	provider := &scriptedProvider{responses: [][]model.StreamEvent{textResponse("unreachable", "endTurn")}}
	sub := agent.NewAgent(agent.Config{Name: "helper", Model: provider})
	node := multiagent.WrapAgent("helper", sub)
	at := multiagent.NewAgentTool("ask_helper", "delegates to the helper agent", node, 1)

	items := at.Stream(context.Background(), tools.Context{
		ToolUse:         core.ToolUseBlock{ToolUseID: "tu_1", Name: "ask_helper", Input: map[string]any{"message": "hi"}},
		InvocationState: map[string]any{"__agent_tool_depth__": 1},
	})

	var result *core.ToolResultBlock
	for item := range items {
		if item.Result != nil {
			result = item.Result
		}
	}
	require.NotNil(t, result)
	require.Equal(t, core.ToolResultError, result.Status)
}
