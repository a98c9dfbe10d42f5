package contract

import "github.com/cloudwego/eino/schema"

type AgentType string

const (
	AgentTypeTriage     AgentType = "triage"
	AgentTypeJobs       AgentType = "jobs"
	AgentTypeCandidates AgentType = "candidates"
	AgentTypePostWriter AgentType = "post_writer"
)

// TurnRequest is one chat submission. HasHistory reports whether the caller
// sent a history array at all, so an explicit empty array can be told apart
// from an absent one.
type TurnRequest struct {
	Message    string            `json:"message"`
	SessionID  string            `json:"sessionId,omitempty"`
	History    []*schema.Message `json:"history,omitempty"`
	HasHistory bool              `json:"-"`
}
