package agent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxorch/agentcore/agent"
	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/tools"
)

// scriptedProvider emits a fixed sequence of responses, one per call, for
// deterministic loop testing. Grounded on the teacher's test_helpers_test.go
// "stub planner returns a scripted sequence of results" convention.
type scriptedProvider struct {
	calls     int
	responses [][]model.StreamEvent
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

func toolUseResponse(toolName, toolUseID, jsonInput string) []model.StreamEvent {
	return []model.StreamEvent{
		{Kind: model.EventMessageStart, Role: core.RoleAssistant},
		{Kind: model.EventContentBlockStart, ContentBlockIndex: 0, Start: &model.BlockStart{
			ToolUseStart: &model.ToolUseStart{Name: toolName, ToolUseID: toolUseID},
		}},
		{Kind: model.EventContentBlockDelta, ContentBlockIndex: 0, ToolInput: &model.ToolUseInputDelta{Input: jsonInput}},
		{Kind: model.EventContentBlockStop, ContentBlockIndex: 0},
		{Kind: model.EventMessageStop, StopReason: "toolUse"},
	}
}

func drain(t *testing.T, ch <-chan agent.Event) *agent.Result {
	t.Helper()
	var last agent.Event
	for evt := range ch {
		last = evt
	}
	require.NotNil(t, last.Result, "stream must terminate with a Result-bearing event")
	return last.Result
}

func TestAgentInvokeSimpleTurn(t *testing.T) {
	provider := &scriptedProvider{responses: [][]model.StreamEvent{textResponse("hello there", "endTurn")}}
	a := agent.NewAgent(agent.Config{Name: "greeter", Model: provider})

	result := drain(t, a.Invoke(context.Background(), "hi"))

	require.Equal(t, agent.StatusDone, result.Status)
	require.Equal(t, "hello there", result.Message.Text())
}

func TestAgentInvokeToolUseThenEndTurn(t *testing.T) {
	provider := &scriptedProvider{responses: [][]model.StreamEvent{
		toolUseResponse("get_weather", "tu_1", `{"city":"nyc"}`),
		textResponse("it is sunny", "endTurn"),
	}}
	registry := tools.NewRegistry()
	called := false
	require.NoError(t, registry.Add(tools.NewFunctionTool("get_weather", "looks up weather", nil,
		func(ctx context.Context, tc tools.Context) (any, error) {
			called = true
			return "sunny", nil
		})))

	a := agent.NewAgent(agent.Config{Name: "weatherbot", Model: provider, Tools: registry})
	result := drain(t, a.Invoke(context.Background(), "weather?"))

	require.True(t, called)
	require.Equal(t, agent.StatusDone, result.Status)
	require.Equal(t, "it is sunny", result.Message.Text())
}

func TestAgentInvokeUnknownToolSynthesizesErrorResult(t *testing.T) {
	provider := &scriptedProvider{responses: [][]model.StreamEvent{
		toolUseResponse("does_not_exist", "tu_1", `{}`),
		textResponse("fallback answer", "endTurn"),
	}}
	a := agent.NewAgent(agent.Config{Name: "bot", Model: provider})
	result := drain(t, a.Invoke(context.Background(), "do the thing"))

	require.Equal(t, agent.StatusDone, result.Status)
	require.Equal(t, "fallback answer", result.Message.Text())
}

func TestAgentInvokeConcurrentRejected(t *testing.T) {
	blocking := make(chan model.StreamEvent)
	provider := &blockingProvider{ch: blocking, started: make(chan struct{})}
	a := agent.NewAgent(agent.Config{Name: "bot", Model: provider})

	first := a.Invoke(context.Background(), "go")
	// Let the first invocation actually start before firing the second.
	<-provider.started

	second := a.Invoke(context.Background(), "go again")
	result := drain(t, second)
	require.Equal(t, agent.StatusFailed, result.Status)
	require.Error(t, result.Err)

	close(blocking)
	drain(t, first)
}

type blockingProvider struct {
	ch      chan model.StreamEvent
	started chan struct{}
}

func (p *blockingProvider) Stream(ctx context.Context, req model.Request) (<-chan model.StreamEvent, error) {
	close(p.started)
	return p.ch, nil
}

func TestAgentInvokeCancellation(t *testing.T) {
	blocking := make(chan model.StreamEvent)
	provider := &blockingProvider{ch: blocking, started: make(chan struct{})}
	a := agent.NewAgent(agent.Config{Name: "bot", Model: provider})

	ctx, cancel := context.WithCancel(context.Background())
	stream := a.Invoke(ctx, "go")
	<-provider.started
	cancel()

	result := drain(t, stream)
	require.Equal(t, agent.StatusCanceled, result.Status)
}
