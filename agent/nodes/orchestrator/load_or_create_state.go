package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

// LoadOrCreateState makes sure the session exists and, unless the caller
// supplied its own history, loads the stored transcript.
func LoadOrCreateState(in *GraphState, store contractx.SessionStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sess := store.GetOrCreateSession(in.SessionID)
	if !in.HasOverride {
		in.Stored = sess.Transcript
	}
	return in, nil
}
