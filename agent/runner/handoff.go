package runner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

func handoffToolInfo(target *Agent) *schema.ToolInfo {
	desc := fmt.Sprintf("Handoff to the %s agent to handle the request.", target.Name)
	if extra := strings.Join(strings.Fields(target.HandoffDescription), " "); extra != "" {
		desc += " " + extra
	}
	return &schema.ToolInfo{
		Name:        HandoffToolName(target),
		Desc:        desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}
}

func handoffOutput(target *Agent) string {
	b, _ := json.Marshal(map[string]string{"assistant": target.Name})
	return string(b)
}

const multipleHandoffsOutput = "Multiple handoffs detected, ignoring this one."
