package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
	openrouterx "github.com/tanpawarit/recruiter-chat/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	TriageModel           string  `envconfig:"TRIAGE_MODEL" split_words:"true"`
	JobsModel             string  `envconfig:"JOBS_MODEL" split_words:"true"`
	CandidatesModel       string  `envconfig:"CANDIDATES_MODEL" split_words:"true"`
	PostWriterModel       string  `envconfig:"POST_WRITER_MODEL" split_words:"true"`
	TriageTemperature     float32 `envconfig:"TRIAGE_TEMPERATURE" split_words:"true" default:"-1"`
	JobsTemperature       float32 `envconfig:"JOBS_TEMPERATURE" split_words:"true" default:"-1"`
	CandidatesTemperature float32 `envconfig:"CANDIDATES_TEMPERATURE" split_words:"true" default:"-1"`
	PostWriterTemperature float32 `envconfig:"POST_WRITER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// overrides returns the per-agent model name and temperature. A negative
// temperature means "use the default".
func (c Config) overrides(agentType contractx.AgentType) (string, float32) {
	switch agentType {
	case contractx.AgentTypeTriage:
		return c.TriageModel, c.TriageTemperature
	case contractx.AgentTypeJobs:
		return c.JobsModel, c.JobsTemperature
	case contractx.AgentTypeCandidates:
		return c.CandidatesModel, c.CandidatesTemperature
	case contractx.AgentTypePostWriter:
		return c.PostWriterModel, c.PostWriterTemperature
	default:
		return "", -1
	}
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	overrideModel, overrideTemp := c.overrides(agentType)
	if v := strings.TrimSpace(overrideModel); v != "" {
		modelName = v
	}
	if overrideTemp >= 0 {
		temp = overrideTemp
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// Models lists every model id the agents will call.
func (c Config) Models() []string {
	agents := []contractx.AgentType{
		contractx.AgentTypeTriage,
		contractx.AgentTypeJobs,
		contractx.AgentTypeCandidates,
		contractx.AgentTypePostWriter,
	}
	out := make([]string, 0, len(agents))
	for _, a := range agents {
		out = append(out, c.OpenRouterFor(a).Model)
	}
	return out
}

func (c Config) OpenRouter() openrouterx.Config {
	return c.OpenRouterFor("")
}
