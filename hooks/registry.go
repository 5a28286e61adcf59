package hooks

import (
	"context"
	"sync"
)

// Callback is a subscriber function for a specific EventKind. It receives
// the concrete event (callers type-assert to the kind-specific struct to
// read/mutate fields such as Retry or CancelTool) and may return an error.
//
// Returning a non-nil error aborts the current dispatch: remaining
// callbacks for this event are not invoked, and the error propagates to the
// caller of Dispatch, which per spec §4.1 means the current phase fails
// unless the error is an interrupt signal the loop specifically recognizes.
type Callback func(ctx context.Context, event Event) error

// Registry is a typed publish/subscribe registry over the HookEvent variant
// set (spec §4.1). It is the ordered counterpart to the simpler fan-out
// Bus (SPEC_FULL §4.1'), which is sugar layered on top of a Registry.
type Registry struct {
	mu   sync.RWMutex
	subs map[EventKind][]Callback
}

// NewRegistry constructs an empty hook registry, ready for Subscribe calls.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[EventKind][]Callback)}
}

// Subscribe registers cb for kind. Callbacks are stored in insertion order;
// Dispatch invokes them in that order, or in reverse order for the kinds
// IsReverse reports true for.
//
// Late subscription is permitted but must not observe in-flight dispatches
// of the same event: Dispatch snapshots the callback slice before iterating
// (copy-on-iterate), matching spec §5's HookRegistry shared-resource policy.
func (r *Registry) Subscribe(kind EventKind, cb Callback) {
	if cb == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[kind] = append(r.subs[kind], cb)
}

// Dispatch invokes every callback subscribed to event.Kind(), in
// registration order (or reverse order for After* kinds), synchronously.
//
// Dispatch stops at the first callback that returns a non-nil error and
// returns that error to the caller. This includes interrupt signals: the
// interrupt package's Exception type is an ordinary error from this
// package's point of view, so it propagates the same way (spec §4.1,
// design note on InterruptException as a control-flow primitive).
func (r *Registry) Dispatch(ctx context.Context, event Event) error {
	r.mu.RLock()
	snapshot := append([]Callback(nil), r.subs[event.Kind()]...)
	r.mu.RUnlock()

	if IsReverse(event.Kind()) {
		for i := len(snapshot) - 1; i >= 0; i-- {
			if err := snapshot[i](ctx, event); err != nil {
				return err
			}
		}
		return nil
	}
	for _, cb := range snapshot {
		if err := cb(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
