// Package sse implements the consumer-facing wire protocol of spec §6.2:
// Server-Sent Events framing (`event: <type>\ndata: <json>\n\n`) over any
// executor's event stream, terminated by an `event: done` or `event: error`
// frame. Grounded on the teacher's runtime/agent/stream package's
// Sink.Send/Sink.Close shape (a push-only, single-writer framing sink),
// adapted from the teacher's Pulse/WS framing to the spec's plain-HTTP SSE
// framing. Uses only net/http and encoding/json — §6.2 names the exact wire
// bytes an HTTP client must see, which is squarely a standard-library
// concern (http.ResponseWriter + http.Flusher); no third-party SSE or HTTP
// framework in the example pack does anything this package couldn't do
// more simply with net/http directly.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fluxorch/agentcore/agent"
	"github.com/fluxorch/agentcore/multiagent"
)

// frame is one `event: <type>\ndata: <json>\n\n` unit.
type frame struct {
	event string
	data  any
}

// Sink writes frames to an underlying http.ResponseWriter, flushing after
// each one so the consumer observes each event as it is produced rather
// than buffered until the handler returns.
type Sink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSink wraps w for SSE writing. Returns an error if w does not support
// flushing (required for a streaming response).
func NewSink(w http.ResponseWriter) (*Sink, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse: response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &Sink{w: w, flusher: f}, nil
}

func (s *Sink) send(f frame) error {
	payload, err := json.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("sse: marshaling %s frame: %w", f.event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", f.event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// doneFrame is the JSON payload of a terminal "done" frame (spec §6.2: "a
// final result fields (runId?, text?, structuredOutput?, usage,
// executionTime, perNode?, perModelUsage?, nodeHistory?, executionOrder?,
// modelId?, estimatedCostUsd?)"). Fields irrelevant to the terminating
// executor are left at their zero value and omitted.
type doneFrame struct {
	Text             string         `json:"text,omitempty"`
	StructuredOutput any            `json:"structuredOutput,omitempty"`
	Usage            usagePayload   `json:"usage"`
	ExecutionTimeMs  int64          `json:"executionTimeMs"`
	PerNode          map[string]any `json:"perNode,omitempty"`
	ExecutionOrder   []string       `json:"executionOrder,omitempty"`
	InterruptIDs     []string       `json:"interruptIds,omitempty"`
}

type usagePayload struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

type errorFrame struct {
	Message string `json:"message"`
}

// StreamAgent drains ch, framing each agent.Event over sink, and returns
// once the stream closes. The terminal agent.Event (EventDone/EventError)
// is translated into the §6.2 "done"/"error" wire frames; every other kind
// is forwarded as its own event type using the agent.EventKind string
// directly, matching spec §6.2's "a sequence of JSON objects, each with a
// type discriminator from the sets in §4.3 and §4.5".
func StreamAgent(sink *Sink, ch <-chan agent.Event) error {
	for evt := range ch {
		switch evt.Kind {
		case agent.EventDone:
			if err := sink.send(frame{event: "done", data: resultToDoneFrame(evt.Result)}); err != nil {
				return err
			}
		case agent.EventError:
			msg := "unknown error"
			if evt.Result != nil && evt.Result.Err != nil {
				msg = evt.Result.Err.Error()
			}
			if err := sink.send(frame{event: "error", data: errorFrame{Message: msg}}); err != nil {
				return err
			}
		default:
			if err := sink.send(frame{event: string(evt.Kind), data: eventPayload(evt)}); err != nil {
				return err
			}
		}
	}
	return nil
}

func eventPayload(evt agent.Event) any {
	switch evt.Kind {
	case agent.EventModelDelta:
		return evt.ModelDelta
	case agent.EventBlockComplete:
		return map[string]any{"blockIndex": evt.BlockIndex, "block": evt.Block}
	case agent.EventToolProgress:
		return map[string]any{"toolUseId": evt.ToolUseID, "progress": evt.Progress}
	case agent.EventToolResult:
		return map[string]any{"toolUseId": evt.ToolUseID, "result": evt.ToolResult}
	default:
		return evt
	}
}

func resultToDoneFrame(r *agent.Result) doneFrame {
	if r == nil {
		return doneFrame{}
	}
	df := doneFrame{
		Text: r.Message.Text(),
		Usage: usagePayload{
			InputTokens:  r.Usage.InputTokens,
			OutputTokens: r.Usage.OutputTokens,
			TotalTokens:  r.Usage.TotalTokens,
		},
		ExecutionTimeMs: r.ExecutionTime.Milliseconds(),
		InterruptIDs:    r.InterruptIDs,
	}
	if r.StructuredOutput != nil {
		df.StructuredOutput = r.StructuredOutput
	}
	return df
}

// StreamMultiAgent is StreamAgent's counterpart for a swarm/graph event
// stream (multiagent.StreamEvent), terminating on EventResult.
func StreamMultiAgent(sink *Sink, ch <-chan multiagent.StreamEvent) error {
	for evt := range ch {
		if evt.Kind == multiagent.EventResult {
			if err := sink.send(frame{event: "done", data: multiAgentDoneFrame(evt.Result)}); err != nil {
				return err
			}
			continue
		}
		if err := sink.send(frame{event: string(evt.Kind), data: multiAgentEventPayload(evt)}); err != nil {
			return err
		}
	}
	return nil
}

func multiAgentEventPayload(evt multiagent.StreamEvent) any {
	switch evt.Kind {
	case multiagent.EventNodeStream:
		if ae, ok := evt.Event.Agent.(*agent.Event); ok {
			return map[string]any{"nodeId": evt.NodeID, "event": eventPayload(*ae)}
		}
		return map[string]any{"nodeId": evt.NodeID}
	case multiagent.EventHandoff:
		return map[string]any{"from": evt.FromNodeIDs, "to": evt.ToNodeIDs, "message": evt.Message}
	case multiagent.EventNodeStart, multiagent.EventNodeStop, multiagent.EventNodeInterrupt, multiagent.EventNodeCancel:
		return map[string]any{"nodeId": evt.NodeID, "result": evt.NodeResult}
	default:
		return evt
	}
}

func multiAgentDoneFrame(r *multiagent.Result) doneFrame {
	if r == nil {
		return doneFrame{}
	}
	perNode := make(map[string]any, len(r.NodeResults))
	for id, nr := range r.NodeResults {
		perNode[id] = nr
	}
	return doneFrame{
		Usage: usagePayload{
			InputTokens:  r.AggregatedUsage.InputTokens,
			OutputTokens: r.AggregatedUsage.OutputTokens,
			TotalTokens:  r.AggregatedUsage.TotalTokens,
		},
		ExecutionTimeMs: r.ExecutionTime.Milliseconds(),
		PerNode:         perNode,
		ExecutionOrder:  r.ExecutionOrder,
	}
}
