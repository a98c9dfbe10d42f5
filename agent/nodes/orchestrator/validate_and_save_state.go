package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

// ValidateAndSaveState checks that the reconciled transcript still starts
// with the turn input, then writes it back as the session transcript.
func ValidateAndSaveState(in *GraphState, store contractx.SessionStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if len(in.History) <= len(in.Input) {
		return nil, fmt.Errorf("%w: reconciled history has %d items for %d input items", contractx.ErrValidation, len(in.History), len(in.Input))
	}
	for i, msg := range in.Input {
		got := in.History[i]
		if got == nil || got.Role != msg.Role || got.Content != msg.Content {
			return nil, fmt.Errorf("%w: reconciled history diverges from input at index %d", contractx.ErrValidation, i)
		}
	}

	store.UpdateSession(in.SessionID, in.History)
	return in, nil
}
