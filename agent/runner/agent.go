package runner

import (
	"strings"
	"unicode"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
)

// Agent is a named model configuration with instructions, tools, and the
// agents it may hand control to.
type Agent struct {
	Name               string
	Instructions       string
	HandoffDescription string
	Model              einomodel.ToolCallingChatModel
	Tools              []tool.InvokableTool
	Handoffs           []*Agent
}

// HandoffToolName is the tool name a model calls to transfer control to a.
func HandoffToolName(a *Agent) string {
	return "transfer_to_" + slug(a.Name)
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
