package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

var (
	//go:embed template/triage.txt
	triageRaw string

	//go:embed template/jobs.txt
	jobsRaw string

	//go:embed template/candidates.txt
	candidatesRaw string

	//go:embed template/post_writer.txt
	postWriterRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Triage     string
	Jobs       string
	Candidates string
	PostWriter string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Triage:     strings.TrimSpace(triageRaw),
		Jobs:       strings.TrimSpace(jobsRaw),
		Candidates: strings.TrimSpace(candidatesRaw),
		PostWriter: strings.TrimSpace(postWriterRaw),
	}
}

// For returns the instructions for agentType. Prompts are rendered as
// FString templates, so a prompt containing braces is rejected.
func (p PromptSet) For(agentType contractx.AgentType) (string, error) {
	var text string
	switch agentType {
	case contractx.AgentTypeTriage:
		text = p.Triage
	case contractx.AgentTypeJobs:
		text = p.Jobs
	case contractx.AgentTypeCandidates:
		text = p.Candidates
	case contractx.AgentTypePostWriter:
		text = p.PostWriter
	default:
		return "", fmt.Errorf("%w: %s", contractx.ErrUnknownAgent, agentType)
	}

	if text == "" {
		return "", fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, agentType)
	}
	if strings.ContainsAny(text, "{}") {
		return "", fmt.Errorf("%w: prompt for agent=%s contains template braces", contractx.ErrValidation, agentType)
	}
	return text, nil
}
