package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

var (
	ErrInvalidMessage = fmt.Errorf("%w: message is required", contractx.ErrValidation)
)

// GraphState carries one turn through the prepare and commit graphs.
type GraphState struct {
	SessionID   string
	Message     string
	Override    []*schema.Message
	HasOverride bool
	Now         time.Time

	Stored []*schema.Message
	Input  []*schema.Message

	FinalText   string
	History     []*schema.Message
	FinalOutput string
}

type GraphOutput struct {
	SessionID   string
	History     []*schema.Message
	FinalOutput string
}

// ValidateRequest rejects an empty message and resolves the session id,
// falling back to defaultSessionID.
func ValidateRequest(req contractx.TurnRequest, defaultSessionID string, nowFn func() time.Time) (*GraphState, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID:   ResolveSessionID(req.SessionID, defaultSessionID),
		Message:     req.Message,
		Override:    req.History,
		HasOverride: req.HasHistory,
		Now:         nowFn().UTC(),
	}, nil
}

func ResolveSessionID(sessionID, defaultSessionID string) string {
	if id := strings.TrimSpace(sessionID); id != "" {
		return id
	}
	return defaultSessionID
}
