package swarm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxorch/agentcore/agent"
	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/multiagent"
	"github.com/fluxorch/agentcore/swarm"
)

// scriptedProvider emits a fixed sequence of responses, one per call,
// clamping to the last once exhausted (grounded on the same convention used
// in agent/agent_test.go's stub).
type scriptedProvider struct {
	responses [][]model.StreamEvent
	calls     int
}

func (p *scriptedProvider) Stream(ctx context.Context, req model.Request) (<-chan model.StreamEvent, error) {
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	out := make(chan model.StreamEvent, len(p.responses[idx]))
	for _, e := range p.responses[idx] {
		out <- e
	}
	close(out)
	return out, nil
}

func textResponse(text, stop string) []model.StreamEvent {
	return []model.StreamEvent{
		{Kind: model.EventMessageStart, Role: core.RoleAssistant},
		{Kind: model.EventContentBlockStart, ContentBlockIndex: 0},
		{Kind: model.EventContentBlockDelta, ContentBlockIndex: 0, Text: &model.TextDelta{Text: text}},
		{Kind: model.EventContentBlockStop, ContentBlockIndex: 0},
		{Kind: model.EventMessageStop, StopReason: stop},
	}
}

// twoHandoffAttemptsResponse emits a single assistant message carrying two
// handoff_to_agent tool-use blocks, exercising the tie-break rule of spec
// §4.5.1 ("only the first is honored; subsequent ones are converted into
// error tool-results").
func twoHandoffAttemptsResponse(target string) []model.StreamEvent {
	return []model.StreamEvent{
		{Kind: model.EventMessageStart, Role: core.RoleAssistant},
		{Kind: model.EventContentBlockStart, ContentBlockIndex: 0, Start: &model.BlockStart{
			ToolUseStart: &model.ToolUseStart{Name: "handoff_to_agent", ToolUseID: "tu_1"},
		}},
		{Kind: model.EventContentBlockDelta, ContentBlockIndex: 0,
			ToolInput: &model.ToolUseInputDelta{Input: `{"agent_name":"` + target + `","message":"go"}`}},
		{Kind: model.EventContentBlockStop, ContentBlockIndex: 0},
		{Kind: model.EventContentBlockStart, ContentBlockIndex: 1, Start: &model.BlockStart{
			ToolUseStart: &model.ToolUseStart{Name: "handoff_to_agent", ToolUseID: "tu_2"},
		}},
		{Kind: model.EventContentBlockDelta, ContentBlockIndex: 1,
			ToolInput: &model.ToolUseInputDelta{Input: `{"agent_name":"` + target + `","message":"also go"}`}},
		{Kind: model.EventContentBlockStop, ContentBlockIndex: 1},
		{Kind: model.EventMessageStop, StopReason: "toolUse"},
	}
}

func drainSwarm(t *testing.T, ch <-chan multiagent.StreamEvent) ([]multiagent.StreamEvent, *multiagent.Result) {
	t.Helper()
	var events []multiagent.StreamEvent
	var result *multiagent.Result
	for evt := range ch {
		events = append(events, evt)
		if evt.Kind == multiagent.EventResult {
			result = evt.Result
		}
	}
	require.NotNil(t, result)
	return events, result
}

func TestSwarmHandsOffOnceThenCompletes(t *testing.T) {
	providerA := &scriptedProvider{responses: [][]model.StreamEvent{
		twoHandoffAttemptsResponse("b"),
		textResponse("a is done", "endTurn"),
	}}
	providerB := &scriptedProvider{responses: [][]model.StreamEvent{
		textResponse("b says bye", "endTurn"),
	}}

	a := agent.NewAgent(agent.Config{Name: "a", Model: providerA})
	b := agent.NewAgent(agent.Config{Name: "b", Model: providerB})

	sw, err := swarm.New(swarm.Config{
		Agents:      map[string]*agent.Agent{"a": a, "b": b},
		EntryPoint:  "a",
		MaxHandoffs: 3,
	})
	require.NoError(t, err)

	events, result := drainSwarm(t, sw.Invoke(context.Background(), "start"))

	require.Equal(t, multiagent.StatusCompleted, result.Status)
	require.Equal(t, []string{"a", "b"}, result.ExecutionOrder)
	require.Equal(t, multiagent.NodeCompleted, result.NodeResults["a"].Status)
	require.Equal(t, multiagent.NodeCompleted, result.NodeResults["b"].Status)

	var sawHandoff bool
	for _, evt := range events {
		if evt.Kind == multiagent.EventHandoff {
			sawHandoff = true
			require.Equal(t, []string{"a"}, evt.FromNodeIDs)
			require.Equal(t, []string{"b"}, evt.ToNodeIDs)
		}
	}
	require.True(t, sawHandoff, "expected a handoff event between a and b")
}

func TestSwarmTieBreakRejectsSecondHandoffInSameMessage(t *testing.T) {
	providerA := &scriptedProvider{responses: [][]model.StreamEvent{
		twoHandoffAttemptsResponse("b"),
		textResponse("a is done", "endTurn"),
	}}
	providerB := &scriptedProvider{responses: [][]model.StreamEvent{
		textResponse("b says bye", "endTurn"),
	}}

	var secondToolResultErr bool
	a := agent.NewAgent(agent.Config{Name: "a", Model: providerA})
	b := agent.NewAgent(agent.Config{Name: "b", Model: providerB})

	sw, err := swarm.New(swarm.Config{
		Agents:      map[string]*agent.Agent{"a": a, "b": b},
		EntryPoint:  "a",
		MaxHandoffs: 3,
	})
	require.NoError(t, err)

	events, _ := drainSwarm(t, sw.Invoke(context.Background(), "start"))

	for _, evt := range events {
		if evt.Kind != multiagent.EventNodeStream {
			continue
		}
		ae, ok := evt.Event.Agent.(*agent.Event)
		if !ok || ae.Kind != agent.EventToolResult || ae.ToolResult == nil {
			continue
		}
		if ae.ToolUseID == "tu_2" && ae.ToolResult.Status == core.ToolResultError {
			secondToolResultErr = true
		}
	}
	require.True(t, secondToolResultErr, "expected the second handoff_to_agent call to yield an error tool-result")
}

func TestSwarmCapacityExhaustionStopsAtMaxHandoffs(t *testing.T) {
	providerA := &scriptedProvider{responses: [][]model.StreamEvent{
		{
			{Kind: model.EventMessageStart, Role: core.RoleAssistant},
			{Kind: model.EventContentBlockStart, ContentBlockIndex: 0, Start: &model.BlockStart{
				ToolUseStart: &model.ToolUseStart{Name: "handoff_to_agent", ToolUseID: "tu_1"},
			}},
			{Kind: model.EventContentBlockDelta, ContentBlockIndex: 0,
				ToolInput: &model.ToolUseInputDelta{Input: `{"agent_name":"b","message":"go"}`}},
			{Kind: model.EventContentBlockStop, ContentBlockIndex: 0},
			{Kind: model.EventMessageStop, StopReason: "toolUse"},
		},
		textResponse("a done", "endTurn"),
	}}
	providerB := &scriptedProvider{responses: [][]model.StreamEvent{
		{
			{Kind: model.EventMessageStart, Role: core.RoleAssistant},
			{Kind: model.EventContentBlockStart, ContentBlockIndex: 0, Start: &model.BlockStart{
				ToolUseStart: &model.ToolUseStart{Name: "handoff_to_agent", ToolUseID: "tu_2"},
			}},
			{Kind: model.EventContentBlockDelta, ContentBlockIndex: 0,
				ToolInput: &model.ToolUseInputDelta{Input: `{"agent_name":"a","message":"go back"}`}},
			{Kind: model.EventContentBlockStop, ContentBlockIndex: 0},
			{Kind: model.EventMessageStop, StopReason: "toolUse"},
		},
		textResponse("b done", "endTurn"),
	}}

	a := agent.NewAgent(agent.Config{Name: "a", Model: providerA})
	b := agent.NewAgent(agent.Config{Name: "b", Model: providerB})

	sw, err := swarm.New(swarm.Config{
		Agents:      map[string]*agent.Agent{"a": a, "b": b},
		EntryPoint:  "a",
		MaxHandoffs: 1,
	})
	require.NoError(t, err)

	_, result := drainSwarm(t, sw.Invoke(context.Background(), "start"))

	require.Equal(t, multiagent.StatusCompleted, result.Status)
	require.Equal(t, []string{"a", "b"}, result.ExecutionOrder)
}
