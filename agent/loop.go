package agent

import (
	"context"
	"time"

	"github.com/fluxorch/agentcore/agenterr"
	"github.com/fluxorch/agentcore/core"
	"github.com/fluxorch/agentcore/hooks"
	"github.com/fluxorch/agentcore/interrupt"
	"github.com/fluxorch/agentcore/model"
	"github.com/fluxorch/agentcore/tools"
)

// InvokeOption configures a single Invoke call.
type InvokeOption func(*invocation)

// WithStructuredOutput attaches a StructuredOutputContext to the
// invocation (spec §4.4 "Structured Output").
func WithStructuredOutput(sc *StructuredOutputContext) InvokeOption {
	return func(inv *invocation) { inv.structured = sc }
}

// WithInvocationState seeds the invocation-scoped state map threaded into
// every tools.Context this invocation creates (spec §9 "a maxDepth counter
// carried in ToolContext.InvocationState to prevent unbounded recursion" —
// the AgentTool adapter in package multiagent uses this to pass its current
// recursion depth into a nested agent's invocation).
func WithInvocationState(state map[string]any) InvokeOption {
	return func(inv *invocation) { inv.invocationState = state }
}

// invocation holds the state scoped to one Invoke call: the emitted stream,
// the structured-output context (if any), and bookkeeping the loop needs to
// honor the terminal-event-exactly-once and AfterInvocation-exactly-once
// invariants of spec §8.
type invocation struct {
	a          *Agent
	ctx        context.Context
	out        chan Event
	structured      *StructuredOutputContext
	startedAt       time.Time
	usage           model.Usage
	invocationState map[string]any
}

// Invoke runs one invocation of the agent's event loop (spec §4.4) and
// returns a channel of Events terminating in exactly one EventDone or
// EventError. Invoke is not reentrant: calling it again on the same Agent
// while a prior call is still draining its channel returns a closed channel
// carrying a single KindConcurrentInvocation error event (spec §5, §6.3).
func (a *Agent) Invoke(ctx context.Context, prompt string, opts ...InvokeOption) <-chan Event {
	out := make(chan Event, 8)

	if !a.invoking.CompareAndSwap(false, true) {
		go func() {
			defer close(out)
			out <- Event{Kind: EventError, Result: &Result{
				Status: StatusFailed,
				Err:    agenterr.New(agenterr.KindConcurrentInvocation, "agent: invocation already in progress"),
			}}
		}()
		return out
	}

	inv := &invocation{a: a, ctx: ctx, out: out, startedAt: time.Now()}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.invocationState == nil {
		inv.invocationState = make(map[string]any)
	}

	go func() {
		defer a.invoking.Store(false)
		defer close(out)
		inv.run(prompt)
	}()
	return out
}

func (inv *invocation) emit(evt Event) {
	select {
	case inv.out <- evt:
	case <-inv.ctx.Done():
	}
}

func (inv *invocation) canceled() bool {
	select {
	case <-inv.ctx.Done():
		return true
	default:
		return false
	}
}

func (inv *invocation) dispatch(evt hooks.Event) error {
	return inv.a.cfg.Hooks.Dispatch(inv.ctx, evt)
}

// run implements the state machine of spec §4.4 steps 1-7.
func (inv *invocation) run(prompt string) {
	a := inv.a
	a.mu.Lock()
	defer a.mu.Unlock()

	result := &Result{}
	var terminalErr error
	var interrupted *interrupt.Exception
	canceled := false

	// Step 1: Enter.
	if !a.data.initialized {
		a.data.initialized = true
		_ = inv.dispatch(hooks.NewInitialized(a))
	}
	if err := inv.dispatch(hooks.NewBeforeInvocation(a)); err != nil {
		terminalErr = err
	}

	if terminalErr == nil {
		// Step 2: prepare messages.
		userMsg := core.Message{Role: core.RoleUser, Blocks: []core.ContentBlock{core.TextBlock{Text: prompt}}}
		a.data.messages = append(a.data.messages, userMsg)
		_ = inv.dispatch(hooks.NewMessageAdded(a, userMsg))

		if inv.structured != nil {
			if t, err := inv.structured.tool(); err == nil {
				_ = a.cfg.Tools.Add(t)
				defer a.cfg.Tools.RemoveByName(inv.structured.ExpectedToolName)
			} else {
				terminalErr = err
			}
		}
	}

	if terminalErr == nil {
		terminalErr, interrupted, canceled = inv.loop()
	}

	result.Usage = inv.usage
	result.ExecutionTime = time.Since(inv.startedAt)

	switch {
	case canceled:
		result.Status = StatusCanceled
	case interrupted != nil:
		result.Status = StatusInterrupted
		for _, in := range interrupt.Pending(a.data.interruptState) {
			result.InterruptIDs = append(result.InterruptIDs, in.ID)
		}
	case terminalErr != nil:
		result.Status = StatusFailed
		result.Err = terminalErr
	default:
		result.Status = StatusDone
		if len(a.data.messages) > 0 {
			result.Message = a.data.messages[len(a.data.messages)-1]
		}
		if inv.structured != nil {
			result.StructuredOutput = inv.structured.value
		}
	}

	_ = inv.dispatch(hooks.NewAgentResult(a, string(result.Status)))
	afterEvt := hooks.NewAfterInvocation(a)
	afterEvt.Err = result.Err
	afterEvt.Canceled = canceled
	afterEvt.Interrupted = interrupted != nil
	_ = inv.dispatch(afterEvt)

	kind := EventDone
	if result.Status == StatusFailed {
		kind = EventError
	}
	inv.emit(Event{Kind: kind, Result: result})
}

// loop runs the model-call/tool-phase cycle of spec §4.4 steps 3-5 until a
// terminal stop reason, an interrupt, a cancellation, or an unrecoverable
// error. It returns the terminal error (nil on normal Done), the interrupt
// that unwound the loop (nil if none), and whether cancellation ended it.
func (inv *invocation) loop() (error, *interrupt.Exception, bool) {
	a := inv.a
	for {
		if inv.canceled() {
			return nil, nil, true
		}

		stopReason, err, interrupted := inv.modelCallPhase()
		if interrupted != nil {
			return nil, interrupted, false
		}
		if err != nil {
			if ow, ok := asContextOverflow(err); ok {
				if a.cfg.ConversationManager == nil {
					return ow, nil, false
				}
				reduced, rerr := a.cfg.ConversationManager.Reduce(inv.ctx, a.data.messages)
				if rerr != nil {
					return agenterr.NewWithCause(agenterr.KindContextWindowOverflow, "agent: conversation manager failed", rerr), nil, false
				}
				a.data.messages = reduced
				continue
			}
			return err, nil, false
		}

		if inv.canceled() {
			return nil, nil, true
		}

		switch stopReason {
		case "toolUse":
			done, terr, interrupted, canceled := inv.toolPhase()
			if interrupted != nil {
				return nil, interrupted, false
			}
			if canceled {
				return nil, nil, true
			}
			if terr != nil {
				return terr, nil, false
			}
			if done {
				return nil, nil, false
			}
			continue
		case "endTurn", "stopSequence", "contentFiltered", "guardrailIntervened", "maxTokens":
			return nil, nil, false
		default:
			return nil, nil, false
		}
	}
}

func asContextOverflow(err error) (error, bool) {
	if k, ok := agenterr.KindOf(err); ok && k == agenterr.KindContextWindowOverflow {
		return err, true
	}
	return nil, false
}

// modelCallPhase implements spec §4.4 step 3, including the BeforeModelCall
// retry loop (step 3a/3d) bounded by Config.MaxModelRetries.
func (inv *invocation) modelCallPhase() (stopReason string, terminalErr error, interrupted *interrupt.Exception) {
	a := inv.a
	for attempt := 0; attempt <= a.cfg.MaxModelRetries; attempt++ {
		before := hooks.NewBeforeModelCall(a)
		if err := inv.dispatch(before); err != nil {
			if ix, ok := err.(*interrupt.Exception); ok {
				return "", nil, ix
			}
			return "", err, nil
		}

		stop, callErr := inv.streamOneModelCall()

		after := hooks.NewAfterModelCall(a, stop, callErr)
		dispatchErr := inv.dispatch(after)
		if dispatchErr != nil {
			if ix, ok := dispatchErr.(*interrupt.Exception); ok {
				return "", nil, ix
			}
			return "", dispatchErr, nil
		}

		if before.Retry || after.Retry {
			continue
		}
		if callErr != nil {
			return "", callErr, nil
		}

		if sc := inv.structured; sc != nil && !sc.forceAttempted {
			last := a.data.messages[len(a.data.messages)-1]
			if len(last.ToolUses()) == 0 {
				sc.forceAttempted = true
				a.data.messages = append(a.data.messages, core.Message{
					Role:   core.RoleUser,
					Blocks: []core.ContentBlock{core.TextBlock{Text: sc.prompt()}},
				})
				continue
			}
		}
		return stop, nil, nil
	}
	return "", agenterr.New(agenterr.KindValidation, "agent: exceeded max model-call retries"), nil
}

// streamOneModelCall performs a single streaming model invocation, feeding
// the StreamAggregator and dispatching ModelStreamObserver/
// ContentBlockComplete per delta and completed block (spec §4.4 step 3b-c).
func (inv *invocation) streamOneModelCall() (stopReason string, err error) {
	a := inv.a
	req := model.Request{
		Messages:     a.data.messages,
		Tools:        a.cfg.Tools.Specs(),
		SystemPrompt: a.cfg.SystemPrompt,
		MaxTokens:    a.cfg.MaxTokens,
		Temperature:  a.cfg.Temperature,
	}
	if inv.structured != nil && inv.structured.forceAttempted {
		req.ToolChoice = &model.ToolChoice{Mode: model.ToolChoiceAny}
	}

	events, streamErr := a.cfg.Model.Stream(inv.ctx, req)
	if streamErr != nil {
		return "", streamErr
	}

	agg := model.NewStreamAggregator()
readLoop:
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				break readLoop
			}
			item := agg.Feed(evt)
			if item.Block != nil {
				_ = inv.dispatch(hooks.NewContentBlockComplete(a, item.Block, item.BlockIndex))
				inv.emit(Event{Kind: EventBlockComplete, Block: item.Block, BlockIndex: item.BlockIndex})
			} else {
				_ = inv.dispatch(hooks.NewModelStreamObserver(a, evt))
				inv.emit(Event{Kind: EventModelDelta, ModelDelta: &evt})
			}
			if evt.Kind == model.EventMetadata && evt.Usage != nil {
				inv.usage.InputTokens += evt.Usage.InputTokens
				inv.usage.OutputTokens += evt.Usage.OutputTokens
				inv.usage.TotalTokens += evt.Usage.TotalTokens
			}
		case <-inv.ctx.Done():
			return "", nil
		}
	}

	msg := agg.Message()
	stop := agg.StopReason()

	_ = inv.dispatch(hooks.NewModelMessage(a, msg, stop))
	a.data.messages = append(a.data.messages, msg)
	_ = inv.dispatch(hooks.NewMessageAdded(a, msg))

	if stop == "modelContextWindowExceeded" {
		return stop, agenterr.New(agenterr.KindContextWindowOverflow, "agent: model context window exceeded")
	}
	// A maxTokens stop ends the invocation as a normal StatusDone result
	// (spec §4.4 step 4). No KindMaxTokens error is recorded for it: Result
	// has no metrics field, and the stream carries no separate error event.

	return stop, nil
}

// toolPhase implements spec §4.4 step 5: executes every toolUse block from
// the last assistant message in document order, appends a single
// user-role message carrying every result, and returns whether the
// structured-output tool signalled completion (done=true stops the loop).
func (inv *invocation) toolPhase() (done bool, terminalErr error, interrupted *interrupt.Exception, canceled bool) {
	a := inv.a
	lastMsg := a.data.messages[len(a.data.messages)-1]
	toolUses := lastMsg.ToolUses()

	if err := inv.dispatch(hooks.NewBeforeTools(a, lastMsg)); err != nil {
		if ix, ok := err.(*interrupt.Exception); ok {
			return false, nil, ix, false
		}
		return false, err, nil, false
	}

	results := make([]core.ContentBlock, 0, len(toolUses))
	for _, tu := range toolUses {
		if inv.canceled() {
			return false, nil, nil, true
		}

		result, err, interrupted := inv.callOneTool(tu)
		if interrupted != nil {
			return false, nil, interrupted, false
		}
		if err != nil {
			return false, err, nil, false
		}
		results = append(results, result)

		if inv.structured != nil && tu.Name == inv.structured.ExpectedToolName && result.(core.ToolResultBlock).Status == core.ToolResultSuccess {
			inv.structured.value = tu.Input
			inv.structured.toolUseID = tu.ToolUseID
			done = true
		}
	}

	toolResultMsg := core.Message{Role: core.RoleUser, Blocks: results}
	a.data.messages = append(a.data.messages, toolResultMsg)
	_ = inv.dispatch(hooks.NewMessageAdded(a, toolResultMsg))
	if err := inv.dispatch(hooks.NewAfterTools(a, toolResultMsg)); err != nil {
		if ix, ok := err.(*interrupt.Exception); ok {
			return false, nil, ix, false
		}
		return false, err, nil, false
	}

	return done, nil, nil, false
}

// callOneTool implements spec §4.4 step 5c: lookup, BeforeToolCall (with
// cancel/interrupt handling), invocation with retry, AfterToolCall, and
// ToolResult dispatch.
func (inv *invocation) callOneTool(tu core.ToolUseBlock) (core.ContentBlock, error, *interrupt.Exception) {
	a := inv.a
	t, found := a.cfg.Tools.GetByName(tu.Name)

	before := hooks.NewBeforeToolCall(a, tu, found)
	if err := inv.dispatch(before); err != nil {
		if ix, ok := err.(*interrupt.Exception); ok {
			return nil, nil, ix
		}
		return nil, err, nil
	}
	if before.CancelTool != "" {
		result := errorResult(tu.ToolUseID, before.CancelTool, "canceled")
		_ = inv.dispatch(hooks.NewAfterToolCall(a, tu, result, nil))
		_ = inv.dispatch(hooks.NewToolResult(a, result))
		return result, nil, nil
	}
	if !found {
		result := errorResult(tu.ToolUseID, "Unknown tool: "+tu.Name, "tool_unavailable")
		_ = inv.dispatch(hooks.NewAfterToolCall(a, tu, result, nil))
		_ = inv.dispatch(hooks.NewToolResult(a, result))
		return result, nil, nil
	}

	var result core.ToolResultBlock
	var callErr error
	for attempt := 0; attempt <= a.cfg.MaxToolRetries; attempt++ {
		result, callErr = inv.runToolStream(t, tu)
		after := hooks.NewAfterToolCall(a, tu, result, callErr)
		if err := inv.dispatch(after); err != nil {
			if ix, ok := err.(*interrupt.Exception); ok {
				return nil, nil, ix
			}
			return nil, err, nil
		}
		if !after.Retry {
			break
		}
	}
	_ = inv.dispatch(hooks.NewToolResult(a, result))
	return result, nil, nil
}

// runToolStream drains a Tool's Stream sequence, forwarding progress items
// to the ToolStreamObserver hook and the consumer stream, and returns the
// terminal result.
func (inv *invocation) runToolStream(t tools.Tool, tu core.ToolUseBlock) (core.ToolResultBlock, error) {
	items := t.Stream(inv.ctx, tools.Context{ToolUse: tu, Agent: inv.a, InvocationState: inv.invocationState})
	var result core.ToolResultBlock
toolReadLoop:
	for {
		select {
		case item, ok := <-items:
			if !ok {
				break toolReadLoop
			}
			if item.Result != nil {
				result = *item.Result
			} else {
				_ = inv.dispatch(hooks.NewToolStreamObserver(inv.a, tu.ToolUseID, item.Progress))
				inv.emit(toolItemEvent(tu.ToolUseID, item))
			}
		case <-inv.ctx.Done():
			result = errorResult(tu.ToolUseID, "Tool canceled", "canceled")
			break toolReadLoop
		}
	}
	inv.emit(Event{Kind: EventToolResult, ToolUseID: tu.ToolUseID, ToolResult: &result})
	return result, nil
}

func errorResult(toolUseID, message, kind string) core.ToolResultBlock {
	return core.ToolResultBlock{
		ToolUseID: toolUseID,
		Status:    core.ToolResultError,
		Content:   []core.ToolResultContent{{Text: "Error: " + message}},
		Error:     &core.ToolResultError_{Message: message, Kind: kind},
	}
}
