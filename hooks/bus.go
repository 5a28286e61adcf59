package hooks

import (
	"context"
	"errors"
	"sync"
)

// Subscriber reacts to every published event regardless of kind. It is the
// fan-out counterpart to Callback, ported from the teacher's
// runtime/agent/hooks/bus.go Subscriber/Bus pair, for consumers that prefer
// a single HandleEvent entrypoint with an internal type switch over
// per-kind Subscribe calls.
type Subscriber interface {
	// HandleEvent processes a single event. Returning an error halts
	// delivery to remaining subscribers for this event, the same fail-fast
	// semantics as Registry.Dispatch.
	HandleEvent(ctx context.Context, event Event) error
}

// SubscriberFunc adapts a plain function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, event Event) error

// HandleEvent calls f.
func (f SubscriberFunc) HandleEvent(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus is a simpler, kind-agnostic fan-out surface over a Registry:
// Register subscribes sub to every EventKind, and Publish is sugar for
// dispatching one event through the underlying Registry. It exists for
// consumers migrating from a single-callback observer pattern (Temporal
// workflow-style event buses) who don't need per-phase subscription.
type Bus struct {
	registry *Registry
	allKinds []EventKind
}

// NewBus constructs a Bus backed by a fresh Registry. Use NewBusOver to
// share an existing Registry with phase-keyed Subscribe callers.
func NewBus() *Bus {
	return NewBusOver(NewRegistry())
}

// NewBusOver constructs a Bus that publishes through registry, letting
// Bus subscribers and Registry.Subscribe callbacks observe the same events.
func NewBusOver(registry *Registry) *Bus {
	return &Bus{
		registry: registry,
		allKinds: []EventKind{
			KindInitialized, KindBeforeInvocation, KindAfterInvocation,
			KindMessageAdded, KindBeforeModelCall, KindAfterModelCall,
			KindBeforeToolCall, KindAfterToolCall, KindBeforeTools,
			KindAfterTools, KindModelStreamObserver, KindContentBlockComplete,
			KindModelMessage, KindToolResult, KindToolStreamObserver,
			KindAgentResult,
		},
	}
}

// Register adds sub for every event kind and returns a Subscription that
// can be closed to unregister it. Register returns an error if sub is nil.
//
// Unlike the teacher's bus, which stores subscribers in a map keyed by a
// private handle for O(1) removal, Go's Registry already snapshots its
// callback slice per Dispatch (copy-on-iterate), so Close here simply
// marks the subscription inert; it does not attempt in-place slice removal.
func (b *Bus) Register(sub Subscriber) (Subscription, error) {
	if sub == nil {
		return nil, errors.New("hooks: subscriber is required")
	}
	sub2 := &subscription{active: true}
	guarded := Callback(func(ctx context.Context, event Event) error {
		sub2.mu.Lock()
		active := sub2.active
		sub2.mu.Unlock()
		if !active {
			return nil
		}
		return sub.HandleEvent(ctx, event)
	})
	for _, kind := range b.allKinds {
		b.registry.Subscribe(kind, guarded)
	}
	return sub2, nil
}

// Publish dispatches event through the underlying Registry.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	return b.registry.Dispatch(ctx, event)
}

// Subscription represents an active Bus registration. Closing it stops
// further delivery to the wrapped Subscriber.
type Subscription interface {
	Close() error
}

type subscription struct {
	mu     sync.Mutex
	active bool
}

// Close marks the subscription inert. Idempotent and safe to call
// concurrently, matching the teacher's sync.Once-guarded Close.
func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	return nil
}
