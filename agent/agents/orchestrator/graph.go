package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
	nodex "github.com/tanpawarit/recruiter-chat/agent/nodes/orchestrator"
)

// compilePrepareGraph resolves the run input for a turn:
// validate_request -> load_or_create_state -> build_input.
func (s *Service) compilePrepareGraph(
	ctx context.Context,
) (compose.Runnable[contractx.TurnRequest, *nodex.GraphState], error) {
	graph := compose.NewGraph[contractx.TurnRequest, *nodex.GraphState]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in contractx.TurnRequest) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, s.cfg.DefaultSessionID, s.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateState(in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_state: %w", err)
	}

	if err := graph.AddLambdaNode("build_input",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyInput(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_input: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_state"},
		{"load_or_create_state", "build_input"},
		{"build_input", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.prepare_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile prepare graph: %w", err)
	}
	return runner, nil
}

// compileCommitGraph writes a finished turn back to the store:
// reconcile -> validate_and_save_state -> finalize_reply.
func (s *Service) compileCommitGraph(
	ctx context.Context,
) (compose.Runnable[*nodex.GraphState, nodex.GraphOutput], error) {
	graph := compose.NewGraph[*nodex.GraphState, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("reconcile",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Reconcile(ctx, in, s.reconciler)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node reconcile: %w", err)
	}

	if err := graph.AddLambdaNode("validate_and_save_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ValidateAndSaveState(in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_and_save_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "reconcile"},
		{"reconcile", "validate_and_save_state"},
		{"validate_and_save_state", "finalize_reply"},
		{"finalize_reply", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.commit_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile commit graph: %w", err)
	}
	return runner, nil
}
