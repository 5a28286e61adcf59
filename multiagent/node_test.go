package multiagent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxorch/agentcore/agent"
	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/multiagent"
)

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

func drainNode(t *testing.T, ch <-chan multiagent.StreamEvent) *multiagent.Result {
	t.Helper()
	var result *multiagent.Result
	for evt := range ch {
		if evt.Kind == multiagent.EventResult {
			result = evt.Result
		}
	}
	require.NotNil(t, result, "node stream must terminate with an EventResult")
	return result
}

func TestWrapAgentProducesSingleNodeResult(t *testing.T) {
	provider := &scriptedProvider{responses: [][]model.StreamEvent{textResponse("done", "endTurn")}}
	a := agent.NewAgent(agent.Config{Name: "solo", Model: provider})
	node := multiagent.WrapAgent("solo", a)

	result := drainNode(t, node.InvokeNode(context.Background(), []core.ContentBlock{core.TextBlock{Text: "go"}}, nil))

	require.Equal(t, multiagent.StatusCompleted, result.Status)
	require.Equal(t, []string{"solo"}, result.ExecutionOrder)
	require.Equal(t, multiagent.NodeCompleted, result.NodeResults["solo"].Status)
}
