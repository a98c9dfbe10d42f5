package orchestratornode

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	final := strings.TrimSpace(in.FinalText)
	for i := len(in.History) - 1; i >= len(in.Input); i-- {
		msg := in.History[i]
		if msg != nil && msg.Role == schema.Assistant && strings.TrimSpace(msg.Content) != "" {
			final = strings.TrimSpace(msg.Content)
			break
		}
	}

	return GraphOutput{
		SessionID:   in.SessionID,
		History:     in.History,
		FinalOutput: final,
	}, nil
}
