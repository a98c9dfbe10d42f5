package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

const (
	ToolGetJobs                  = "get_jobs"
	ToolGetJobByID               = "get_job_by_id"
	ToolGetJobApplications       = "get_job_applications"
	ToolGetCandidates            = "get_candidates"
	ToolGetCandidateByID         = "get_candidate_by_id"
	ToolGetCandidateApplications = "get_candidate_applications"
)

// Getter reads JSON from the recruitment API. *jobadder.Client implements it.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

// Catalog hands out the read-only JobAdder tools each agent may call.
type Catalog struct {
	client Getter
}

func NewCatalog(client Getter) *Catalog {
	return &Catalog{client: client}
}

func (c *Catalog) ForAgent(agentType contractx.AgentType) []einotool.InvokableTool {
	var specs []restSpec
	switch agentType {
	case contractx.AgentTypeJobs:
		specs = []restSpec{getJobsSpec, getJobByIDSpec, getJobApplicationsSpec}
	case contractx.AgentTypeCandidates:
		specs = []restSpec{getCandidatesSpec, getCandidateByIDSpec, getCandidateApplicationsSpec}
	default:
		return nil
	}

	tools := make([]einotool.InvokableTool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, &restTool{spec: spec, client: c.client})
	}
	return tools
}

// restSpec maps one tool onto a GET endpoint. Path may contain a single
// "{id}" placeholder filled from the required "id" argument; every name in
// Query is forwarded as a query parameter when set.
type restSpec struct {
	Name  string
	Desc  string
	Path  string
	Query []string
}

var (
	getJobsSpec = restSpec{
		Name: ToolGetJobs,
		Desc: "Get a list of jobs with optional filters. Always include the job id of each job in your answer.",
		Path: "jobs",
		Query: []string{
			"jobTitle", "companyId", "contactId", "statusId", "location", "category",
			"keywords", "workType", "ownerId", "offset", "limit", "embed",
		},
	}
	getJobByIDSpec = restSpec{
		Name:  ToolGetJobByID,
		Desc:  "Get a specific job by its id. Ask the user for the job id when it is not known.",
		Path:  "jobs/{id}",
		Query: []string{"embed"},
	}
	getJobApplicationsSpec = restSpec{
		Name:  ToolGetJobApplications,
		Desc:  "Get the applications submitted for a specific job.",
		Path:  "jobs/{id}/applications",
		Query: []string{"offset", "limit"},
	}
	getCandidatesSpec = restSpec{
		Name: ToolGetCandidates,
		Desc: "Get a list of candidates with optional filters. Always include the candidate id of each candidate in your answer.",
		Path: "candidates",
		Query: []string{
			"name", "email", "phone", "currentPosition", "city", "state", "location",
			"keywords", "statusId", "offset", "limit", "embed",
		},
	}
	getCandidateByIDSpec = restSpec{
		Name:  ToolGetCandidateByID,
		Desc:  "Get a specific candidate by id. Check the conversation for the candidate id before asking for it.",
		Path:  "candidates/{id}",
		Query: []string{"embed"},
	}
	getCandidateApplicationsSpec = restSpec{
		Name:  ToolGetCandidateApplications,
		Desc:  "Get the job applications of a specific candidate.",
		Path:  "candidates/{id}/applications",
		Query: []string{"offset", "limit"},
	}
)

func (s restSpec) needsID() bool {
	return strings.Contains(s.Path, "{id}")
}

type restTool struct {
	spec   restSpec
	client Getter
}

var _ einotool.InvokableTool = (*restTool)(nil)

func (t *restTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	params := make(map[string]*schema.ParameterInfo, len(t.spec.Query)+1)
	if t.spec.needsID() {
		params["id"] = &schema.ParameterInfo{Type: schema.String, Desc: "The record id", Required: true}
	}
	for _, q := range t.spec.Query {
		params[q] = &schema.ParameterInfo{Type: schema.String, Desc: "Optional " + q + " filter"}
	}

	return &schema.ToolInfo{
		Name:        t.spec.Name,
		Desc:        t.spec.Desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

func (t *restTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	args, err := parseArgs(argumentsInJSON)
	if err != nil {
		return "", fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolExecute, t.spec.Name, err)
	}

	path := t.spec.Path
	if t.spec.needsID() {
		id, err := stringArg(args, "id")
		if err != nil {
			return "", fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolExecute, t.spec.Name, err)
		}
		if id == "" {
			return "", fmt.Errorf("%w: tool=%s: id is required", contractx.ErrToolExecute, t.spec.Name)
		}
		path = strings.Replace(path, "{id}", url.PathEscape(id), 1)
	}

	query := url.Values{}
	for _, key := range t.spec.Query {
		v, err := stringArg(args, key)
		if err != nil {
			return "", fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolExecute, t.spec.Name, err)
		}
		if v != "" {
			query.Set(key, v)
		}
	}

	body, err := t.client.Get(ctx, path, query)
	if err != nil {
		return "", fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolExecute, t.spec.Name, err)
	}
	return string(body), nil
}
