package tools

import (
	"fmt"
	"sync"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/agenterr"
)

// Registry is a mapping from tool name to Tool instance, with insert-time
// validation (spec §4.2). Mutators are protected by an exclusive lock;
// readers are lock-free after registration completes is approximated here
// with an RWMutex, matching spec §5's shared-resource policy for
// ToolRegistry.
type Registry struct {
	mu    sync.RWMutex
	byName map[string]Tool
	order  []string
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Add validates t's name and inserts it. Insert is atomic:
// on validation failure the registry is left unchanged (spec §8 property 3).
func (r *Registry) Add(t Tool) error {
	name := t.Name()
	if !core.ValidToolName(name) {
		return agenterr.Errorf(agenterr.KindValidation,
			"tools: invalid tool name %q: must be 1-64 characters matching ^[A-Za-z0-9_-]+$", name)
	}
	// Description "non-empty when present" (spec §4.2) collapses to nothing
	// further to check here: Go's string type represents "absent" as "",
	// the same value the constraint forbids for "present".

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return agenterr.Errorf(agenterr.KindValidation, "tools: duplicate tool name %q", name)
	}
	r.byName[name] = t
	r.order = append(r.order, name)
	return nil
}

// GetByName looks up a tool by name, returning ok=false when absent.
func (r *Registry) GetByName(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// Values returns every registered tool in insertion order.
func (r *Registry) Values() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// RemoveByName deletes the tool with the given name, if present. It is a
// no-op if name is not registered.
func (r *Registry) RemoveByName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Specs returns the published core.ToolSpec for every registered tool, in
// insertion order, suitable for handing to a model.Provider request.
func (r *Registry) Specs() []core.ToolSpec {
	values := r.Values()
	out := make([]core.ToolSpec, 0, len(values))
	for _, t := range values {
		out = append(out, t.Spec())
	}
	return out
}

// String renders the registry's tool names for debugging.
func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("tools.Registry(%v)", r.order)
}
