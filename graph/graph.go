package graph

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/multiagent"
)

// Graph is the static-DAG multi-agent executor of spec §4.5.2. It satisfies
// multiagent.Node, so a Graph may be nested as a single node of an
// enclosing graph or swarm (spec §4.5' node unification).
type Graph struct {
	cfg Config
}

// NodeName implements multiagent.Node.
func (g *Graph) NodeName() string { return g.cfg.Name }

// Invoke runs the graph against a single initial content block set, feeding
// every entry-point node the same input (spec §6.1 "Graph::invoke(input,
// options) -> stream").
func (g *Graph) Invoke(ctx context.Context, input []core.ContentBlock) <-chan multiagent.StreamEvent {
	return g.InvokeNode(ctx, input, nil)
}

// InvokeNode implements multiagent.Node, letting this Graph be used as a
// nested node of an enclosing executor.
func (g *Graph) InvokeNode(ctx context.Context, input []core.ContentBlock, invocationState map[string]any) <-chan multiagent.StreamEvent {
	out := make(chan multiagent.StreamEvent)

	go func() {
		defer close(out)
		started := time.Now()

		nodesByID := make(map[string]multiagent.Node, len(g.cfg.Nodes))
		for _, n := range g.cfg.Nodes {
			nodesByID[n.ID] = n.Node
		}
		preds := make(map[string][]string, len(nodesByID))
		for _, e := range g.cfg.Edges {
			preds[e.To] = append(preds[e.To], e.From)
		}
		for id := range preds {
			sort.Strings(preds[id])
		}

		// doneCh[id] closes once id's result (success, failure, or
		// skip-due-to-failed-ancestor) has been recorded, letting every
		// node's goroutine wait on its own predecessors purely via channel
		// receive rather than manual ready-countdown bookkeeping (grounded
		// on uzukizheng-trpc-agent-go/agent/parallelagent's per-branch
		// goroutine + WaitGroup fan-in shape, generalized from
		// "unconditional parallel start" to "predecessor-gated start").
		doneCh := make(map[string]chan struct{}, len(nodesByID))
		for id := range nodesByID {
			doneCh[id] = make(chan struct{})
		}

		var mu sync.Mutex
		results := make(map[string]multiagent.NodeResult, len(nodesByID))
		var executionOrder []string
		var aggregatedUsage model.Usage

		recordResult := func(id string, nr multiagent.NodeResult) {
			mu.Lock()
			results[id] = nr
			executionOrder = append(executionOrder, id)
			mu.Unlock()
		}
		getResult := func(id string) multiagent.NodeResult {
			mu.Lock()
			defer mu.Unlock()
			return results[id]
		}
		addUsage := func(u model.Usage) {
			mu.Lock()
			aggregatedUsage.InputTokens += u.InputTokens
			aggregatedUsage.OutputTokens += u.OutputTokens
			aggregatedUsage.TotalTokens += u.TotalTokens
			mu.Unlock()
		}

		send := func(evt multiagent.StreamEvent) bool {
			select {
			case out <- evt:
				return true
			case <-ctx.Done():
				return false
			}
		}

		runOne := func(id string) {
			defer close(doneCh[id])

			// Wait for every predecessor to finish, gathering their
			// contributions in lexicographic-by-id order (spec §4.5.2 "if
			// two predecessors finish simultaneously, the dependent node's
			// input list is ordered by predecessor id lexicographically").
			var nodeInput []core.ContentBlock
			ancestorFailed := false
			for _, p := range preds[id] {
				select {
				case <-doneCh[p]:
				case <-ctx.Done():
					recordResult(id, multiagent.NodeResult{NodeID: id, Status: multiagent.NodeCanceled})
					return
				}
				pr := getResult(p)
				if pr.Status != multiagent.NodeCompleted {
					ancestorFailed = true
				}
				nodeInput = append(nodeInput, pr.Content...)
			}
			if len(preds[id]) == 0 {
				nodeInput = input
			}

			if ancestorFailed {
				nr := multiagent.NodeResult{NodeID: id, Status: multiagent.NodeFailed, Error: errors.New("graph: ancestor failed")}
				recordResult(id, nr)
				send(multiagent.StreamEvent{Kind: multiagent.EventNodeStop, NodeID: id, NodeResult: nr})
				return
			}

			if ctx.Err() != nil {
				recordResult(id, multiagent.NodeResult{NodeID: id, Status: multiagent.NodeCanceled})
				return
			}

			node, ok := nodesByID[id]
			if !ok {
				recordResult(id, multiagent.NodeResult{NodeID: id, Status: multiagent.NodeFailed, Error: errors.New("graph: unknown node")})
				return
			}

			if !send(multiagent.StreamEvent{Kind: multiagent.EventNodeStart, NodeID: id}) {
				recordResult(id, multiagent.NodeResult{NodeID: id, Status: multiagent.NodeCanceled})
				return
			}

			nodeStartedAt := time.Now()
			var nr multiagent.NodeResult
			gotStop := false
			for evt := range node.InvokeNode(ctx, nodeInput, invocationState) {
				if evt.Kind == multiagent.EventResult {
					if evt.Result != nil {
						addUsage(evt.Result.AggregatedUsage)
					}
					continue
				}
				if evt.Kind == multiagent.EventNodeStop {
					nr = evt.NodeResult
					gotStop = true
				}
				if !send(evt) {
					recordResult(id, multiagent.NodeResult{NodeID: id, Status: multiagent.NodeCanceled, Duration: time.Since(nodeStartedAt)})
					return
				}
			}
			if !gotStop {
				nr = multiagent.NodeResult{NodeID: id, Status: multiagent.NodeCanceled, Duration: time.Since(nodeStartedAt)}
				send(multiagent.StreamEvent{Kind: multiagent.EventNodeStop, NodeID: id, NodeResult: nr})
			}
			recordResult(id, nr)
		}

		var wg sync.WaitGroup
		for id := range nodesByID {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				runOne(id)
			}(id)
		}
		wg.Wait()

		mu.Lock()
		status := multiagent.StatusCompleted
		for _, id := range executionOrder {
			if results[id].Status == multiagent.NodeFailed {
				status = multiagent.StatusFailed
				break
			}
		}
		resultsCopy := make(map[string]multiagent.NodeResult, len(results))
		for k, v := range results {
			resultsCopy[k] = v
		}
		orderCopy := append([]string(nil), executionOrder...)
		usage := aggregatedUsage
		mu.Unlock()

		send(multiagent.StreamEvent{Kind: multiagent.EventResult, Result: &multiagent.Result{
			Status:          status,
			NodeResults:     resultsCopy,
			ExecutionOrder:  orderCopy,
			ExecutionTime:   time.Since(started),
			AggregatedUsage: usage,
		}})
	}()

	return out
}

var _ multiagent.Node = (*Graph)(nil)
