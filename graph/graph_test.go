package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxorch/agentcore/agent"
	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/multiagent"

	"github.com/fluxorch/agentcore/graph"
)

// scriptedProvider emits a fixed sequence of responses, one per call,
// clamping to the last once exhausted (same convention used throughout the
// multiagent/swarm test suites).
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

func textResponse(text string) []model.StreamEvent {
	return []model.StreamEvent{
		{Kind: model.EventMessageStart, Role: core.RoleAssistant},
		{Kind: model.EventContentBlockStart, ContentBlockIndex: 0},
		{Kind: model.EventContentBlockDelta, ContentBlockIndex: 0, Text: &model.TextDelta{Text: text}},
		{Kind: model.EventContentBlockStop, ContentBlockIndex: 0},
		{Kind: model.EventMessageStop, StopReason: "endTurn"},
	}
}

func wrappedAgent(name, reply string) multiagent.Node {
	p := &scriptedProvider{responses: [][]model.StreamEvent{textResponse(reply)}}
	return multiagent.WrapAgent(name, agent.NewAgent(agent.Config{Name: name, Model: p}))
}

// failingNode implements multiagent.Node directly (no leaf agent involved)
// so a node can be made to fail deterministically without modeling a model
// error path through scriptedProvider.
type failingNode struct{ name string }

func (f *failingNode) NodeName() string { return f.name }

func (f *failingNode) InvokeNode(ctx context.Context, input []core.ContentBlock, invocationState map[string]any) <-chan multiagent.StreamEvent {
	out := make(chan multiagent.StreamEvent, 2)
	nr := multiagent.NodeResult{NodeID: f.name, Status: multiagent.NodeFailed, Error: errors.New("boom")}
	out <- multiagent.StreamEvent{Kind: multiagent.EventNodeStart, NodeID: f.name}
	out <- multiagent.StreamEvent{Kind: multiagent.EventNodeStop, NodeID: f.name, NodeResult: nr}
	close(out)
	return out
}

func drainGraph(t *testing.T, ch <-chan multiagent.StreamEvent) ([]multiagent.StreamEvent, *multiagent.Result) {
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

// TestGraphDiamondRunsAllNodes exercises spec §8 Scenario C: A feeds both B
// and C, and D waits on both before running.
func TestGraphDiamondRunsAllNodes(t *testing.T) {
	g, err := graph.NewBuilder("diamond").
		AddNode("a", wrappedAgent("a", "a says hi")).
		AddNode("b", wrappedAgent("b", "b says hi")).
		AddNode("c", wrappedAgent("c", "c says hi")).
		AddNode("d", wrappedAgent("d", "d says hi")).
		AddEdge("a", "b").
		AddEdge("a", "c").
		AddEdge("b", "d").
		AddEdge("c", "d").
		EntryPoint("a").
		Build()
	require.NoError(t, err)

	_, result := drainGraph(t, g.Invoke(context.Background(), []core.ContentBlock{core.TextBlock{Text: "go"}}))

	require.Equal(t, multiagent.StatusCompleted, result.Status)
	require.Len(t, result.ExecutionOrder, 4)
	require.Equal(t, multiagent.NodeCompleted, result.NodeResults["a"].Status)
	require.Equal(t, multiagent.NodeCompleted, result.NodeResults["b"].Status)
	require.Equal(t, multiagent.NodeCompleted, result.NodeResults["c"].Status)
	require.Equal(t, multiagent.NodeCompleted, result.NodeResults["d"].Status)

	// d must run strictly after both b and c (its only predecessors).
	indexOf := func(id string) int {
		for i, e := range result.ExecutionOrder {
			if e == id {
				return i
			}
		}
		return -1
	}
	require.Greater(t, indexOf("d"), indexOf("b"))
	require.Greater(t, indexOf("d"), indexOf("c"))
	require.Less(t, indexOf("a"), indexOf("b"))
	require.Less(t, indexOf("a"), indexOf("c"))
}

// TestGraphFailurePropagatesToDescendants exercises the failure-propagation
// rule of spec §4.5.2: a failed node marks its descendants failed, and
// descendants never actually run (no EventNodeStart is emitted for them).
func TestGraphFailurePropagatesToDescendants(t *testing.T) {
	g, err := graph.NewBuilder("chain").
		AddNode("a", &failingNode{name: "a"}).
		AddNode("b", wrappedAgent("b", "unreachable")).
		AddEdge("a", "b").
		EntryPoint("a").
		Build()
	require.NoError(t, err)

	events, result := drainGraph(t, g.Invoke(context.Background(), []core.ContentBlock{core.TextBlock{Text: "go"}}))

	require.Equal(t, multiagent.StatusFailed, result.Status)
	require.Equal(t, multiagent.NodeFailed, result.NodeResults["a"].Status)
	require.Equal(t, multiagent.NodeFailed, result.NodeResults["b"].Status)

	for _, evt := range events {
		if evt.Kind == multiagent.EventNodeStart {
			require.NotEqual(t, "b", evt.NodeID, "descendant of a failed node must never start")
		}
	}
}

func TestGraphBuilderRejectsCycle(t *testing.T) {
	_, err := graph.NewBuilder("cyclic").
		AddNode("a", wrappedAgent("a", "x")).
		AddNode("b", wrappedAgent("b", "y")).
		AddEdge("a", "b").
		AddEdge("b", "a").
		EntryPoint("a").
		Build()
	require.Error(t, err)
}

func TestGraphBuilderRejectsUnknownEdgeEndpoint(t *testing.T) {
	_, err := graph.NewBuilder("bad").
		AddNode("a", wrappedAgent("a", "x")).
		AddEdge("a", "ghost").
		EntryPoint("a").
		Build()
	require.Error(t, err)
}
