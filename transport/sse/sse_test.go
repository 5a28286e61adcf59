package sse_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxorch/agentcore/agent"
	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/transport/sse"
)

func TestStreamAgentFramesDoneEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := sse.NewSink(rec)
	require.NoError(t, err)

	ch := make(chan agent.Event, 2)
	ch <- agent.Event{Kind: agent.EventModelDelta}
	ch <- agent.Event{Kind: agent.EventDone, Result: &agent.Result{
		Status:  agent.StatusDone,
		Message: core.Message{Role: core.RoleAssistant, Blocks: []core.ContentBlock{core.TextBlock{Text: "hi"}}},
	}}
	close(ch)

	require.NoError(t, sse.StreamAgent(sink, ch))

	body := rec.Body.String()
	require.Contains(t, body, "event: model_delta\n")
	require.Contains(t, body, "event: done\n")
	require.Contains(t, body, `"text":"hi"`)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, 2, strings.Count(body, "\n\n"))
}

func TestStreamAgentFramesErrorEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := sse.NewSink(rec)
	require.NoError(t, err)

	ch := make(chan agent.Event, 1)
	ch <- agent.Event{Kind: agent.EventError, Result: &agent.Result{Status: agent.StatusFailed}}
	close(ch)

	require.NoError(t, sse.StreamAgent(sink, ch))
	require.Contains(t, rec.Body.String(), "event: error\n")
}
