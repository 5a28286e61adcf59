// Package interrupt implements the deterministic pause-token system of spec
// §4.6: a hook callback may request a human-in-the-loop pause by calling
// Request, which either throws an Exception to unwind the current phase or,
// on resume, returns the previously supplied response. Grounded on the
// teacher's runtime/agent/interrupt package (Temporal-signal based) but
// reworked into the spec's in-process, deterministic-id model: this package
// owns no transport, only the id scheme and the per-agent interrupt map.
package interrupt

import (
	"context"

	"github.com/google/uuid"
)

// namespace is the fixed UUID namespace spec §3 requires for the
// "uuid5(name, OID namespace)" component of an interrupt id. The OID
// namespace is a well-known RFC 4122 namespace; reusing it (rather than
// minting a project-specific one) keeps ids stable across ports of this
// spec in other languages, since every uuid5 implementation ships the same
// four predefined namespaces.
var namespace = uuid.NameSpaceOID

// Interrupt is a deterministic pause token (spec §3).
type Interrupt struct {
	// ID is deterministic: "v1:<phase>:<toolUseId>:<uuid5(name, OID namespace)>".
	ID string
	// Name is the caller-supplied interrupt name (e.g. "approve_write").
	Name string
	// Reason is an optional human-readable explanation.
	Reason string
	// Response holds the value supplied by resume(), nil until then.
	Response any
}

// ID computes the deterministic interrupt id for (phase, toolUseID, name),
// per spec §3/§4.6. The same triple always yields the same id, making
// resumes idempotent (spec §8 property 5).
func ID(phase, toolUseID, name string) string {
	u := uuid.NewSHA1(namespace, []byte(name))
	return "v1:" + phase + ":" + toolUseID + ":" + u.String()
}

// State is the per-agent interrupt map (spec §3 "InterruptState"), owned by
// the agent's data and mutated only by its own loop or by Resume when the
// loop is paused — these two never run concurrently (spec §5).
type State struct {
	Interrupts map[string]*Interrupt
}

// NewState constructs an empty interrupt state.
func NewState() *State {
	return &State{Interrupts: make(map[string]*Interrupt)}
}

// Exception is the control-flow primitive a hook callback throws (returns,
// in Go) to pause execution (spec §4.6, §9 design note: "Stream events
// delivered by throwing (InterruptException): keep as a control-flow
// primitive ... model as a Result::Err(Interrupt) bubbled up explicitly by
// every layer of dispatch"). hooks.Registry.Dispatch treats this like any
// other error and propagates it; the agent loop recognizes it specifically
// at the top of its dispatch call sites to divert into the interrupt path
// (spec §4.4 step 6) instead of the Failed path.
type Exception struct {
	Interrupt *Interrupt
}

// Error implements the error interface.
func (e *Exception) Error() string {
	return "interrupt: " + e.Interrupt.Name + " (" + e.Interrupt.ID + ")"
}

// Request implements the spec §4.6 algorithm for a hook callback:
//
//   - compute id = ID(phase, toolUseID, name)
//   - if state.Interrupts[id] is absent, insert a fresh Interrupt and
//     return an *Exception to unwind the callback
//   - if present and Response != nil, return (response, nil) to the caller
//   - if present and Response == nil, return an *Exception again
//
// Callers (hook callbacks) use it as:
//
//	resp, err := interrupt.Request(state, "before_tool_call", toolUseID, "approve_write", "will write")
//	if err != nil { return err } // unwinds as *Exception
//	// resp now holds the value supplied by resume()
func Request(state *State, phase, toolUseID, name, reason string) (any, error) {
	id := ID(phase, toolUseID, name)
	existing, ok := state.Interrupts[id]
	if !ok {
		in := &Interrupt{ID: id, Name: name, Reason: reason}
		state.Interrupts[id] = in
		return nil, &Exception{Interrupt: in}
	}
	if existing.Response != nil {
		return existing.Response, nil
	}
	return nil, &Exception{Interrupt: existing}
}

// Resume implements spec §4.6 "On resume(responses)": for each id present
// in responses, set interrupts[id].Response and return the set of ids that
// were actually found (and thus can now be satisfied on re-entry). Ids not
// present in state are ignored.
func Resume(ctx context.Context, state *State, responses map[string]any) []string {
	_ = ctx
	var applied []string
	for id, value := range responses {
		if in, ok := state.Interrupts[id]; ok {
			in.Response = value
			applied = append(applied, id)
		}
	}
	return applied
}

// Pending returns every interrupt currently awaiting a response (Response
// still nil), in no particular order. Used by the loop to report the set of
// interrupt ids in a terminal "interrupted" event.
func Pending(state *State) []*Interrupt {
	var out []*Interrupt
	for _, in := range state.Interrupts {
		if in.Response == nil {
			out = append(out, in)
		}
	}
	return out
}
