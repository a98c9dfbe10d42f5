package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

const DefaultMaxTurns = 10

// Result is the outcome of a completed run. History is the run input
// followed by every item the run produced.
type Result struct {
	History     []*schema.Message
	FinalOutput string
	LastAgent   string
}

type Option func(*Runner)

func WithMaxTurns(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxTurns = n
		}
	}
}

func WithStepCompiler(c StepCompiler) Option {
	return func(r *Runner) {
		if c != nil {
			r.compile = c
		}
	}
}

type compiledAgent struct {
	agent    *Agent
	step     Step
	tools    map[string]tool.InvokableTool
	handoffs map[string]*Agent
}

// Runner drives an agent graph: model steps, tool calls, and handoffs, until
// an agent answers without calling a tool. A Runner is safe for concurrent
// runs; compiled agents are read-only after New.
type Runner struct {
	root     *Agent
	agents   map[*Agent]*compiledAgent
	maxTurns int
	compile  StepCompiler
}

func New(ctx context.Context, root *Agent, opts ...Option) (*Runner, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: root agent is required", contractx.ErrValidation)
	}

	r := &Runner{
		root:     root,
		agents:   make(map[*Agent]*compiledAgent, 4),
		maxTurns: DefaultMaxTurns,
		compile:  CompileStep,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.prepare(ctx, root); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) prepare(ctx context.Context, a *Agent) error {
	if _, ok := r.agents[a]; ok {
		return nil
	}

	ca := &compiledAgent{
		agent:    a,
		tools:    make(map[string]tool.InvokableTool, len(a.Tools)),
		handoffs: make(map[string]*Agent, len(a.Handoffs)),
	}
	r.agents[a] = ca

	infos := make([]*schema.ToolInfo, 0, len(a.Tools)+len(a.Handoffs))
	for _, t := range a.Tools {
		info, err := t.Info(ctx)
		if err != nil {
			return fmt.Errorf("%w: tool info for agent=%s: %v", contractx.ErrValidation, a.Name, err)
		}
		if _, dup := ca.tools[info.Name]; dup {
			return fmt.Errorf("%w: duplicate tool=%s for agent=%s", contractx.ErrValidation, info.Name, a.Name)
		}
		ca.tools[info.Name] = t
		infos = append(infos, info)
	}
	for _, h := range a.Handoffs {
		if h == nil {
			continue
		}
		ca.handoffs[HandoffToolName(h)] = h
		infos = append(infos, handoffToolInfo(h))
	}

	step, err := r.compile(ctx, a, infos)
	if err != nil {
		return err
	}
	ca.step = step

	for _, h := range a.Handoffs {
		if h == nil {
			continue
		}
		if err := r.prepare(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

// Run executes a full run without streaming.
func (r *Runner) Run(ctx context.Context, input []*schema.Message) (Result, error) {
	return r.loop(ctx, input, false, func(Event) bool { return true })
}

// RunStreamed starts a run and returns its events. The channel is unbuffered
// so the run advances only as fast as the consumer reads. It is closed when
// the run ends; on error the last event is a Failure. Once ctx is done the
// run stops without waiting for the consumer.
func (r *Runner) RunStreamed(ctx context.Context, input []*schema.Message) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if _, err := r.loop(ctx, input, true, emit); err != nil {
			emit(Failure{Err: err})
		}
	}()
	return events
}

func (r *Runner) loop(ctx context.Context, input []*schema.Message, streaming bool, emit func(Event) bool) (Result, error) {
	history := make([]*schema.Message, 0, len(input)+4)
	history = append(history, input...)
	current := r.agents[r.root]

	for turn := 0; turn < r.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		msg, err := r.step(ctx, current, history, streaming, emit)
		if err != nil {
			return Result{}, err
		}
		history = append(history, msg)

		if strings.TrimSpace(msg.Content) != "" || len(msg.ToolCalls) == 0 {
			if !emit(MessageFinalized{Ref: current.agent.Name}) {
				return Result{}, ctx.Err()
			}
		}

		if len(msg.ToolCalls) == 0 {
			log.Debug().
				Str("agent", current.agent.Name).
				Int("turns", turn+1).
				Msg("run finished")
			return Result{
				History:     history,
				FinalOutput: msg.Content,
				LastAgent:   current.agent.Name,
			}, nil
		}

		next, outputs, err := r.dispatch(ctx, current, msg.ToolCalls, emit)
		if err != nil {
			return Result{}, err
		}
		history = append(history, outputs...)
		if next != nil {
			log.Debug().
				Str("from", current.agent.Name).
				Str("to", next.agent.Name).
				Msg("handoff")
			current = next
		}
	}

	return Result{}, fmt.Errorf("%w: limit=%d", contractx.ErrMaxTurns, r.maxTurns)
}

func (r *Runner) step(
	ctx context.Context,
	ca *compiledAgent,
	history []*schema.Message,
	streaming bool,
	emit func(Event) bool,
) (*schema.Message, error) {
	in := map[string]any{historyKey: history}

	if !streaming {
		msg, err := ca.step.Invoke(ctx, in)
		if err != nil {
			return nil, modelError(ctx, ca, err)
		}
		return normalize(ca, msg)
	}

	sr, err := ca.step.Stream(ctx, in)
	if err != nil {
		return nil, modelError(ctx, ca, err)
	}
	defer sr.Close()

	var chunks []*schema.Message
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, modelError(ctx, ca, err)
		}
		if chunk == nil {
			continue
		}
		chunks = append(chunks, chunk)
		if chunk.Content != "" && !emit(TextDelta{Text: chunk.Content}) {
			return nil, ctx.Err()
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: agent=%s returned an empty stream", contractx.ErrModelInvoke, ca.agent.Name)
	}
	msg, err := schema.ConcatMessages(chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: concat stream for agent=%s: %v", contractx.ErrModelInvoke, ca.agent.Name, err)
	}
	return normalize(ca, msg)
}

func (r *Runner) dispatch(
	ctx context.Context,
	ca *compiledAgent,
	calls []schema.ToolCall,
	emit func(Event) bool,
) (*compiledAgent, []*schema.Message, error) {
	var next *compiledAgent
	outputs := make([]*schema.Message, 0, len(calls))

	for _, call := range calls {
		if target, ok := ca.handoffs[call.Function.Name]; ok {
			if next != nil {
				outputs = append(outputs, toolMessage(multipleHandoffsOutput, call))
				continue
			}
			next = r.agents[target]
			if !emit(HandoffOccurred{Agent: target.Name}) {
				return nil, nil, ctx.Err()
			}
			outputs = append(outputs, toolMessage(handoffOutput(target), call))
			continue
		}

		if !emit(ToolInvoked{Ref: call.ID}) {
			return nil, nil, ctx.Err()
		}
		out, err := invokeTool(ctx, ca, call)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, toolMessage(out, call))
		if !emit(ToolCompleted{Ref: call.ID}) {
			return nil, nil, ctx.Err()
		}
	}

	return next, outputs, nil
}

// invokeTool returns tool failures as output text so the model can react to
// them. Only context errors abort the run.
func invokeTool(ctx context.Context, ca *compiledAgent, call schema.ToolCall) (string, error) {
	name := call.Function.Name
	t, ok := ca.tools[name]
	if !ok {
		return fmt.Sprintf("error: tool %s is not available to %s", name, ca.agent.Name), nil
	}

	out, err := t.InvokableRun(ctx, call.Function.Arguments)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		log.Warn().
			Err(fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolExecute, name, err)).
			Str("agent", ca.agent.Name).
			Msg("tool call failed")
		return "error: " + err.Error(), nil
	}
	return out, nil
}

func toolMessage(content string, call schema.ToolCall) *schema.Message {
	msg := schema.ToolMessage(content, call.ID)
	msg.ToolName = call.Function.Name
	return msg
}

func normalize(ca *compiledAgent, msg *schema.Message) (*schema.Message, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: agent=%s returned no message", contractx.ErrModelInvoke, ca.agent.Name)
	}
	if msg.Role == "" {
		msg.Role = schema.Assistant
	}
	return msg, nil
}

func modelError(ctx context.Context, ca *compiledAgent, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: agent=%s: %v", contractx.ErrModelInvoke, ca.agent.Name, err)
}
