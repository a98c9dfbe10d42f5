package state

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Session is one conversation keyed by a caller-chosen id.
// Transcript is never nil; a fresh or cleared session holds an empty slice.
type Session struct {
	ID            string            `json:"sessionId"`
	Transcript    []*schema.Message `json:"history"`
	CreatedAt     time.Time         `json:"createdAt"`
	LastUpdatedAt time.Time         `json:"lastUpdated"`
}

func newSession(id string, now time.Time) *Session {
	now = now.UTC()
	return &Session{
		ID:            id,
		Transcript:    []*schema.Message{},
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

func (s *Session) MessageCount() int {
	if s == nil {
		return 0
	}
	return len(s.Transcript)
}

func (s *Session) clone() Session {
	return Session{
		ID:            s.ID,
		Transcript:    CloneTranscript(s.Transcript),
		CreatedAt:     s.CreatedAt,
		LastUpdatedAt: s.LastUpdatedAt,
	}
}

// CloneTranscript copies the slice and each message so callers can mutate
// the result without touching stored state.
func CloneTranscript(in []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(in))
	for _, msg := range in {
		if msg == nil {
			continue
		}
		cp := *msg
		if len(msg.ToolCalls) > 0 {
			cp.ToolCalls = append([]schema.ToolCall(nil), msg.ToolCalls...)
		}
		out = append(out, &cp)
	}
	return out
}
