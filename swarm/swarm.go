package swarm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/multiagent"
)

// Swarm is the free-form, handoff-driven multi-agent executor of spec
// §4.5.1. It satisfies multiagent.Node, so a Swarm may itself be nested as
// a single node of an enclosing graph or swarm (spec §4.5' node
// unification); its stream events then carry its member agents' names as
// their NodeID.
type Swarm struct {
	cfg Config
}

// New validates cfg and constructs a Swarm (spec §6.1 "Swarm::new(config)").
func New(cfg Config) (*Swarm, error) {
	if err := cfg.withDefaults(); err != nil {
		return nil, err
	}
	return &Swarm{cfg: cfg}, nil
}

// NodeName implements multiagent.Node.
func (s *Swarm) NodeName() string { return s.cfg.Name }

// Invoke runs the swarm against a single text prompt (spec §6.1
// "Swarm::invoke(prompt, options) -> stream").
func (s *Swarm) Invoke(ctx context.Context, prompt string) <-chan multiagent.StreamEvent {
	return s.run(ctx, []core.ContentBlock{core.TextBlock{Text: prompt}}, nil)
}

// InvokeNode implements multiagent.Node, letting this Swarm be used as a
// nested node of an enclosing executor.
func (s *Swarm) InvokeNode(ctx context.Context, input []core.ContentBlock, invocationState map[string]any) <-chan multiagent.StreamEvent {
	return s.run(ctx, input, invocationState)
}

func addUsage(total *model.Usage, u model.Usage) {
	total.InputTokens += u.InputTokens
	total.OutputTokens += u.OutputTokens
	total.TotalTokens += u.TotalTokens
}

// run implements the loop of spec §4.5.1.
func (s *Swarm) run(ctx context.Context, input []core.ContentBlock, invocationState map[string]any) <-chan multiagent.StreamEvent {
	out := make(chan multiagent.StreamEvent)

	go func() {
		defer close(out)

		started := time.Now()
		shared := NewSharedContext(s.cfg.EntryPoint)

		baseState := make(map[string]any, len(invocationState)+1)
		for k, v := range invocationState {
			baseState[k] = v
		}
		baseState[sharedContextStateKey] = shared

		validNames := make([]string, 0, len(s.cfg.Agents))
		for name := range s.cfg.Agents {
			validNames = append(validNames, name)
		}
		sort.Strings(validNames)

		send := func(evt multiagent.StreamEvent) bool {
			select {
			case out <- evt:
				return true
			case <-ctx.Done():
				return false
			}
		}

		nodeResults := make(map[string]multiagent.NodeResult)
		var executionOrder []string
		var aggregatedUsage model.Usage

		currentNode := s.cfg.EntryPoint
		currentInput := input
		handoffCount := 0
		iterationCount := 0
		status := multiagent.StatusCompleted

	loop:
		for {
			ag, ok := s.cfg.Agents[currentNode]
			if !ok {
				status = multiagent.StatusFailed
				nodeResults[currentNode] = multiagent.NodeResult{
					NodeID: currentNode, Status: multiagent.NodeFailed,
					Error: fmt.Errorf("swarm: unknown agent %q", currentNode),
				}
				executionOrder = append(executionOrder, currentNode)
				break loop
			}

			sig := &handoffSignal{}
			handoffTool, err := newHandoffTool(sig, validNames)
			if err != nil {
				status = multiagent.StatusFailed
				break loop
			}
			_ = ag.Tools().Add(handoffTool)

			nodeCtx := ctx
			var cancelNode context.CancelFunc
			if s.cfg.NodeTimeoutMs > 0 {
				nodeCtx, cancelNode = context.WithTimeout(ctx, time.Duration(s.cfg.NodeTimeoutMs)*time.Millisecond)
			}

			node := multiagent.WrapAgent(currentNode, ag)
			nodeStartedAt := time.Now()
			var nr multiagent.NodeResult
			gotStop := false

			for evt := range node.InvokeNode(nodeCtx, currentInput, baseState) {
				if evt.Kind == multiagent.EventResult {
					if evt.Result != nil {
						addUsage(&aggregatedUsage, evt.Result.AggregatedUsage)
					}
					continue
				}
				if evt.Kind == multiagent.EventNodeStop {
					nr = evt.NodeResult
					if nodeCtx.Err() == context.DeadlineExceeded {
						nr.Status = multiagent.NodeInterrupted
						nr.Error = errors.New("NodeTimeout")
					}
					evt.NodeResult = nr
					gotStop = true
				}
				if !send(evt) {
					if cancelNode != nil {
						cancelNode()
					}
					ag.Tools().RemoveByName(handoffToolName)
					return
				}
			}
			if cancelNode != nil {
				cancelNode()
			}
			ag.Tools().RemoveByName(handoffToolName)

			if !gotStop {
				nr = multiagent.NodeResult{NodeID: currentNode, Status: multiagent.NodeCanceled, Duration: time.Since(nodeStartedAt)}
				if !send(multiagent.StreamEvent{Kind: multiagent.EventNodeStop, NodeID: currentNode, NodeResult: nr}) {
					return
				}
			}

			nodeResults[currentNode] = nr
			executionOrder = append(executionOrder, currentNode)

			if nr.Status != multiagent.NodeCompleted {
				status = multiagent.StatusFromNodeStatus(nr.Status)
				break loop
			}

			iterationCount++

			capacityExhausted := handoffCount >= s.cfg.MaxHandoffs ||
				iterationCount >= s.cfg.MaxIterations ||
				(s.cfg.ExecutionTimeoutMs > 0 && time.Since(started) > time.Duration(s.cfg.ExecutionTimeoutMs)*time.Millisecond)
			if capacityExhausted {
				status = multiagent.StatusCompleted
				break loop
			}

			if !sig.attempted || sig.target == "" {
				status = multiagent.StatusCompleted
				break loop
			}

			target := sig.target
			if _, ok := s.cfg.Agents[target]; !ok {
				status = multiagent.StatusFailed
				break loop
			}

			from := currentNode
			handoffCount++
			shared.recordHandoff(from, target, sig.message)
			if !send(multiagent.StreamEvent{Kind: multiagent.EventHandoff, FromNodeIDs: []string{from}, ToNodeIDs: []string{target}, Message: sig.message}) {
				return
			}
			shared.setCurrentNode(target)
			currentNode = target
			// The handoff message becomes the target agent's next user
			// turn (spec §9 design note leaves this ambiguous); the
			// structured record is also available to any tool or nested
			// agent via SharedContext.HandoffHistory through
			// baseState[sharedContextStateKey].
			currentInput = []core.ContentBlock{core.TextBlock{Text: sig.message}}
		}

		send(multiagent.StreamEvent{Kind: multiagent.EventResult, Result: &multiagent.Result{
			Status:          status,
			NodeResults:     nodeResults,
			ExecutionOrder:  executionOrder,
			ExecutionTime:   time.Since(started),
			AggregatedUsage: aggregatedUsage,
		}})
	}()

	return out
}

var _ multiagent.Node = (*Swarm)(nil)
