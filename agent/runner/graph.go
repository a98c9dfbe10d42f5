package runner

import (
	"context"
	"fmt"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

const historyKey = "history"

// Step runs one model turn for an agent over the conversation so far.
// compose.Runnable[map[string]any, *schema.Message] satisfies it.
type Step interface {
	Invoke(ctx context.Context, input map[string]any, opts ...compose.Option) (*schema.Message, error)
	Stream(ctx context.Context, input map[string]any, opts ...compose.Option) (*schema.StreamReader[*schema.Message], error)
}

// StepCompiler turns an agent and its tool surface into a Step.
type StepCompiler func(ctx context.Context, agent *Agent, tools []*schema.ToolInfo) (Step, error)

// CompileStep builds the prompt -> model graph for an agent. The system
// prompt is formatted with FString, so instructions must not contain braces.
func CompileStep(ctx context.Context, agent *Agent, tools []*schema.ToolInfo) (Step, error) {
	if agent == nil || agent.Model == nil {
		return nil, fmt.Errorf("%w: agent model is required", contractx.ErrValidation)
	}

	chatModel := agent.Model
	if len(tools) > 0 {
		bound, err := agent.Model.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, agent.Name, err)
		}
		chatModel = bound
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(agent.Instructions),
		schema.MessagesPlaceholder(historyKey, false),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("runner."+slug(agent.Name)))
	if err != nil {
		return nil, fmt.Errorf("compile agent graph %s: %w", agent.Name, err)
	}
	return runner, nil
}
