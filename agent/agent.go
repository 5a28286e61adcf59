package agent

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/hooks"
	"github.com/fluxorch/agentcore/interrupt"
	"github.com/fluxorch/agentcore/tools"
)

// data holds the mutable state owned exclusively by an Agent's own loop
// (spec §5 "AgentData.messages is mutated only by the agent's own loop ...
// therefore no locking"). Agent's invoking flag exists only to reject a
// concurrent second Invoke call (spec §6.3 ConcurrentInvocationError), not
// to protect these fields against concurrent access during a single
// invocation.
type data struct {
	messages      []core.Message
	interruptState *interrupt.State
	initialized   bool
}

// Agent is one instance of the central state machine of spec §4.4. A single
// Agent must not be invoked concurrently with itself; invoking it again
// while a prior Invoke is in flight returns a KindConcurrentInvocation
// error, mirroring the "AgentData.messages is mutated only by the agent's
// own loop" invariant of spec §5.
type Agent struct {
	id   string
	cfg  Config
	data data

	invoking atomic.Bool
	mu       sync.Mutex
}

// NewAgent constructs an Agent from cfg, filling in defaults for any unset
// ambient-stack field (hooks registry, tool registry, telemetry, retry
// caps), matching the teacher's Runtime constructor default-filling
// (runtime/agent/runtime/runtime.go).
func NewAgent(cfg Config) *Agent {
	cfg.withDefaults()
	return &Agent{
		id: uuid.NewString(),
		cfg: cfg,
		data: data{
			interruptState: interrupt.NewState(),
		},
	}
}

// AgentID implements hooks.AgentHandle and tools.AgentHandle.
func (a *Agent) AgentID() string { return a.id }

// AgentName implements hooks.AgentHandle and tools.AgentHandle.
func (a *Agent) AgentName() string { return a.cfg.Name }

// Tools exposes this agent's tool registry so a multi-agent executor
// (swarm, graph) can inject a synthetic per-node tool — e.g. the swarm's
// handoff_to_agent tool (spec §4.5.1) — without needing its own copy of the
// agent's configuration.
func (a *Agent) Tools() *tools.Registry { return a.cfg.Tools }

var _ hooks.AgentHandle = (*Agent)(nil)
