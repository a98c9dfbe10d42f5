package specialist

import (
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

// definition is the static identity of one agent.
type definition struct {
	agentType          contractx.AgentType
	name               string
	handoffDescription string
}

var (
	triageDef = definition{
		agentType: contractx.AgentTypeTriage,
		name:      "Master Triage",
	}
	jobsDef = definition{
		agentType: contractx.AgentTypeJobs,
		name:      "Jobadder Jobs Agent",
		handoffDescription: "Reads jobs from JobAdder: open roles, job details by id, and job applications. " +
			"A job id must be included in its answer.",
	}
	candidatesDef = definition{
		agentType: contractx.AgentTypeCandidates,
		name:      "Jobadder Candidates Agent",
		handoffDescription: "Reads candidates from JobAdder: candidate search, candidate details by id, " +
			"and a candidate's applications.",
	}
	postWriterDef = definition{
		agentType:          contractx.AgentTypePostWriter,
		name:               "Linkedin Post Writer",
		handoffDescription: "Writes LinkedIn posts in the company tone of voice.",
	}
)

// specialists are the agents the triage agent can hand off to, in the order
// their handoff tools are offered.
var specialists = []definition{jobsDef, candidatesDef, postWriterDef}
