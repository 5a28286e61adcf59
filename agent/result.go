package agent

import (
	"time"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
)

// Status is the terminal disposition of one Invoke call (spec §4.4 states
// Done | Interrupted | Failed, plus Canceled from the concurrency model of
// spec §5).
type Status string

const (
	StatusDone        Status = "done"
	StatusInterrupted Status = "interrupted"
	StatusFailed      Status = "failed"
	StatusCanceled    Status = "canceled"
)

// Result is the terminal value of one Invoke call, the payload of the
// "done"/"error" wire frames of spec §6.2.
type Result struct {
	// Status reports how the invocation ended.
	Status Status
	// Message is the final assistant message, set when Status == StatusDone.
	Message core.Message
	// StructuredOutput carries the validated structured value when a
	// StructuredOutputContext was attached and satisfied (spec §4.4
	// "Structured Output").
	StructuredOutput any
	// Usage aggregates token usage across every model call in the
	// invocation.
	Usage model.Usage
	// ExecutionTime is the wall-clock duration of the invocation.
	ExecutionTime time.Duration
	// InterruptIDs lists pending interrupt ids when Status ==
	// StatusInterrupted (spec §4.4 step 6).
	InterruptIDs []string
	// Err carries the terminal error when Status == StatusFailed.
	Err error
}
