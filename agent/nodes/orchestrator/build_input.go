package orchestratornode

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

// BuildInput returns the prior transcript followed by the new user message.
// A non-empty override replaces the stored transcript. Neither input slice
// is modified.
func BuildInput(stored, override []*schema.Message, message string) []*schema.Message {
	prior := stored
	if len(override) > 0 {
		prior = override
	}

	out := make([]*schema.Message, 0, len(prior)+1)
	for _, msg := range prior {
		if msg != nil {
			out = append(out, msg)
		}
	}
	return append(out, schema.UserMessage(message))
}

func ApplyInput(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Input = BuildInput(in.Stored, in.Override, in.Message)
	return in, nil
}
