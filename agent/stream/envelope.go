package stream

import (
	"github.com/cloudwego/eino/schema"
)

type EnvelopeType string

const (
	TypeTextDelta       EnvelopeType = "text_delta"
	TypeAgentHandoff    EnvelopeType = "agent_handoff"
	TypeToolCall        EnvelopeType = "tool_call"
	TypeToolOutput      EnvelopeType = "tool_output"
	TypeMessageComplete EnvelopeType = "message_complete"
	TypeFinalResult     EnvelopeType = "final_result"
	TypeError           EnvelopeType = "error"
)

// Sentinel is the payload of the last frame of every stream.
const Sentinel = "[DONE]"

// Envelope is one client-visible frame.
type Envelope struct {
	Type        EnvelopeType      `json:"type"`
	Content     string            `json:"content"`
	FinalOutput string            `json:"finalOutput,omitempty"`
	History     []*schema.Message `json:"history,omitempty"`
	SessionID   string            `json:"sessionId,omitempty"`
}

func TextDeltaEnvelope(text string) Envelope {
	return Envelope{Type: TypeTextDelta, Content: text}
}

func HandoffEnvelope(agent string) Envelope {
	return Envelope{Type: TypeAgentHandoff, Content: "🔄 Switched to " + agent}
}

func ToolCallEnvelope() Envelope {
	return Envelope{Type: TypeToolCall, Content: "🔧 Using tool..."}
}

func ToolOutputEnvelope() Envelope {
	return Envelope{Type: TypeToolOutput, Content: "✅ Tool completed"}
}

func MessageCompleteEnvelope() Envelope {
	return Envelope{Type: TypeMessageComplete, Content: "💬 Message completed"}
}

func FinalResultEnvelope(finalOutput string, history []*schema.Message, sessionID string) Envelope {
	if history == nil {
		history = []*schema.Message{}
	}
	return Envelope{
		Type:        TypeFinalResult,
		Content:     "Response completed",
		FinalOutput: finalOutput,
		History:     history,
		SessionID:   sessionID,
	}
}

func ErrorEnvelope(message string) Envelope {
	return Envelope{Type: TypeError, Content: "Error: " + message}
}
