package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

// Strategy picks how the stored transcript is rebuilt after a streamed turn.
type Strategy string

const (
	// StrategyAccumulate appends the streamed reply as one assistant message.
	// Tool calls and tool outputs of the turn are not kept.
	StrategyAccumulate Strategy = "accumulate"
	// StrategyRerun replays the turn without streaming and stores the full
	// transcript it returns. It costs a second model run per turn.
	StrategyRerun Strategy = "rerun"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyAccumulate:
		return StrategyAccumulate, nil
	case StrategyRerun:
		return StrategyRerun, nil
	default:
		return "", fmt.Errorf("%w: unknown history strategy %q", contractx.ErrValidation, s)
	}
}

type Reconciler interface {
	Reconcile(ctx context.Context, input []*schema.Message, finalText string) ([]*schema.Message, error)
}

// RerunFunc runs a turn to completion and returns its full transcript.
type RerunFunc func(ctx context.Context, input []*schema.Message) ([]*schema.Message, error)

type AccumulateReconciler struct{}

func (AccumulateReconciler) Reconcile(_ context.Context, input []*schema.Message, finalText string) ([]*schema.Message, error) {
	out := make([]*schema.Message, 0, len(input)+1)
	out = append(out, input...)
	return append(out, schema.AssistantMessage(strings.TrimSpace(finalText), nil)), nil
}

type RerunReconciler struct {
	Run RerunFunc
}

func (r RerunReconciler) Reconcile(ctx context.Context, input []*schema.Message, _ string) ([]*schema.Message, error) {
	if r.Run == nil {
		return nil, fmt.Errorf("%w: rerun function is nil", contractx.ErrValidation)
	}
	return r.Run(ctx, input)
}

func NewReconciler(strategy Strategy, rerun RerunFunc) (Reconciler, error) {
	switch strategy {
	case StrategyAccumulate, "":
		return AccumulateReconciler{}, nil
	case StrategyRerun:
		if rerun == nil {
			return nil, fmt.Errorf("%w: rerun strategy needs an engine", contractx.ErrValidation)
		}
		return RerunReconciler{Run: rerun}, nil
	default:
		return nil, fmt.Errorf("%w: unknown history strategy %q", contractx.ErrValidation, strategy)
	}
}

func Reconcile(ctx context.Context, in *GraphState, r Reconciler) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	history, err := r.Reconcile(ctx, in.Input, in.FinalText)
	if err != nil {
		return nil, err
	}
	in.History = history
	return in, nil
}
