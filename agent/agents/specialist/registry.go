package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	einotool "github.com/cloudwego/eino/components/tool"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
	llmx "github.com/tanpawarit/recruiter-chat/agent/llm"
	promptx "github.com/tanpawarit/recruiter-chat/agent/prompt"
	runnerx "github.com/tanpawarit/recruiter-chat/agent/runner"
)

// ModelFactory returns the chat model an agent type should use.
type ModelFactory func(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error)

// ToolSource returns the tools an agent type may call.
type ToolSource interface {
	ForAgent(agentType contractx.AgentType) []einotool.InvokableTool
}

type Registry struct {
	agents map[contractx.AgentType]*runnerx.Agent
}

func (r *Registry) Triage() *runnerx.Agent {
	return r.agents[contractx.AgentTypeTriage]
}

func (r *Registry) Agent(agentType contractx.AgentType) (*runnerx.Agent, error) {
	a, ok := r.agents[agentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownAgent, agentType)
	}
	return a, nil
}

func NewRegistry(ctx context.Context, cfg llmx.Config, tools ToolSource) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factory := func(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
		modelCfg := cfg.OpenRouterFor(agentType)
		return modelCfg.New(ctx)
	}
	return buildRegistry(ctx, factory, promptx.LoadPromptSet(), tools)
}

func buildRegistry(
	ctx context.Context,
	factory ModelFactory,
	prompts promptx.PromptSet,
	tools ToolSource,
) (*Registry, error) {
	r := &Registry{agents: make(map[contractx.AgentType]*runnerx.Agent, 1+len(specialists))}

	build := func(def definition) (*runnerx.Agent, error) {
		instructions, err := prompts.For(def.agentType)
		if err != nil {
			return nil, err
		}
		chatModel, err := factory(ctx, def.agentType)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, def.agentType, err)
		}

		a := &runnerx.Agent{
			Name:               def.name,
			Instructions:       instructions,
			HandoffDescription: def.handoffDescription,
			Model:              chatModel,
		}
		if tools != nil {
			a.Tools = tools.ForAgent(def.agentType)
		}
		r.agents[def.agentType] = a
		return a, nil
	}

	triage, err := build(triageDef)
	if err != nil {
		return nil, err
	}
	for _, def := range specialists {
		a, err := build(def)
		if err != nil {
			return nil, err
		}
		triage.Handoffs = append(triage.Handoffs, a)
	}

	return r, nil
}
